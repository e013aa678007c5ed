// Command train trains an MNIST digit classifier and saves the trained
// model so that it can be exported with the export command.
//
// With no flags, MNIST is read from data/mnist and the model is saved
// to weight/mnist256.bin.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/luaweights/mnist"
	"github.com/samuelfneumann/luaweights/trainer"
	"github.com/samuelfneumann/luaweights/trainer/checkpointer"
)

var (
	configFile = flag.String("config", "", "JSON training configuration")
	dataDir    = flag.String("data", "", "directory of the MNIST IDX files")
	modelPath  = flag.String("model", "", "path to save the trained model to")
	every      = flag.Int("every", 0, "also save the model every n epochs, "+
		"to numbered files next to the model")
	timestamped = flag.Bool("timestamped", false, "name the files saved "+
		"with -every by time instead of number")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	config := trainer.DefaultConfig()
	if *configFile != "" {
		var err error
		config, err = trainer.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("could not load config: %v", err)
		}
	}
	if *dataDir != "" {
		config.DataDir = *dataDir
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
		config.CheckpointPath = *modelPath
	}

	train, test, err := mnist.Load(config.DataDir)
	if err != nil {
		return fmt.Errorf("could not load MNIST: %v", err)
	}
	log.Printf("Loaded %v training and %v test images", train.Len(),
		test.Len())

	t, err := trainer.New(
		config,
		trainer.WithLogger(log.New(os.Stdout, "", 0)),
		trainer.WithProgress(os.Stdout),
	)
	if err != nil {
		return fmt.Errorf("could not create trainer: %v", err)
	}
	defer t.Close()

	if *every > 0 {
		ext := filepath.Ext(config.ModelPath)
		name := strings.TrimSuffix(config.ModelPath, ext) + "-epoch"

		filename := checkpointer.FilenameEnumerator(0, name, ext)
		if *timestamped {
			filename = checkpointer.FileTimer(name, ext)
		}

		c, err := checkpointer.NewNStep(*every, t.Network(), filename)
		if err != nil {
			return fmt.Errorf("could not create checkpointer: %v", err)
		}
		trainer.WithCheckpointer(c)(t)
	}

	history, err := t.Fit(train, test)
	if err != nil {
		return fmt.Errorf("could not train: %v", err)
	}
	if history.Stopped {
		log.Printf("Stopped early, restored weights of epoch %v",
			history.BestEpoch)
	}

	if err := t.Save(config.ModelPath); err != nil {
		return fmt.Errorf("could not save model: %v", err)
	}

	_, accuracy, err := t.Evaluate(test)
	if err != nil {
		return fmt.Errorf("could not evaluate: %v", err)
	}
	log.Printf("Accuracy: %v", accuracy)
	return nil
}
