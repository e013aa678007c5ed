// Command export writes the weights of a model saved by the train
// command as Lua modules W1.lua, B1.lua, W2.lua and B2.lua.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/samuelfneumann/luaweights/exporter"
)

func main() {
	c := exporter.DefaultConfig()
	flag.StringVar(&c.ModelPath, "model", c.ModelPath, "saved model to export")
	flag.StringVar(&c.OutDir, "out", c.OutDir, "output directory")
	flag.IntVar(&c.MatrixWrap, "matrix-wrap", c.MatrixWrap,
		"numbers per line of weight matrix rows, <= 0 for no wrapping")
	flag.IntVar(&c.VectorWrap, "vector-wrap", c.VectorWrap,
		"numbers per line of bias vectors, <= 0 for no wrapping")
	flag.Parse()

	if _, err := exporter.Export(c, os.Stdout); err != nil {
		log.Fatalf("could not export: %v", err)
	}
}
