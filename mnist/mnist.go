// Package mnist implements loading of the MNIST handwritten digit
// dataset from the IDX files distributed at
// http://yann.lecun.com/exdb/mnist/.
package mnist

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// File names of the four IDX files. Each may optionally be gzipped, in
// which case it carries an additional .gz extension.
const (
	TrainImages = "train-images-idx3-ubyte"
	TrainLabels = "train-labels-idx1-ubyte"
	TestImages  = "t10k-images-idx3-ubyte"
	TestLabels  = "t10k-labels-idx1-ubyte"
)

// IDX magic numbers
const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801
)

// Classes is the number of digit classes
const Classes = 10

// MaxDim is the largest image side accepted in an IDX header
const MaxDim = 1 << 12

// chunkSize bounds how much of an IDX body is allocated ahead of the
// bytes actually read
const chunkSize = 1 << 20

// ErrFormat is returned when an IDX file is malformed
var ErrFormat = errors.New("invalid idx file")

// Dataset is a set of images and labels. Each row of Images is a single
// image, flattened in row-major order, with pixel values scaled to
// [0, 1].
type Dataset struct {
	Images *mat.Dense
	Labels []int
	Rows   int
	Cols   int
}

// Len returns the number of samples in the dataset
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Features returns the number of pixels in a single image
func (d *Dataset) Features() int {
	return d.Rows * d.Cols
}

// Batch returns the images and labels of the samples at the given
// indices. Images are returned in a single slice, one image after
// another.
func (d *Dataset) Batch(indices []int) ([]float64, []int) {
	features := d.Features()
	x := make([]float64, 0, len(indices)*features)
	y := make([]int, 0, len(indices))

	for _, i := range indices {
		x = append(x, d.Images.RawRowView(i)...)
		y = append(y, d.Labels[i])
	}
	return x, y
}

// Load loads the training and test datasets from the IDX files in dir
func Load(dir string) (train, test *Dataset, err error) {
	train, err = LoadSet(filepath.Join(dir, TrainImages),
		filepath.Join(dir, TrainLabels))
	if err != nil {
		return nil, nil, fmt.Errorf("load: training set: %w", err)
	}

	test, err = LoadSet(filepath.Join(dir, TestImages),
		filepath.Join(dir, TestLabels))
	if err != nil {
		return nil, nil, fmt.Errorf("load: test set: %w", err)
	}

	return train, test, nil
}

// LoadSet loads a single dataset from an IDX image file and an IDX
// label file. If a file does not exist at the given path, the path with
// a .gz extension is tried instead.
func LoadSet(imagePath, labelPath string) (*Dataset, error) {
	var images []byte
	var n, rows, cols int
	err := withReader(imagePath, func(r io.Reader) error {
		var err error
		images, n, rows, cols, err = readImages(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loadset: %v: %w", imagePath, err)
	}

	var labels []int
	err = withReader(labelPath, func(r io.Reader) error {
		var err error
		labels, err = readLabels(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loadset: %v: %w", labelPath, err)
	}

	if len(labels) != n {
		return nil, fmt.Errorf("loadset: %w: number of labels does not "+
			"match number of images\n\twant(%v)\n\thave(%v)", ErrFormat, n,
			len(labels))
	}

	pixels := make([]float64, len(images))
	for i, p := range images {
		pixels[i] = float64(p) / 255.0
	}

	var data *mat.Dense
	if n > 0 {
		data = mat.NewDense(n, rows*cols, pixels)
	}

	return &Dataset{
		Images: data,
		Labels: labels,
		Rows:   rows,
		Cols:   cols,
	}, nil
}

// withReader opens path, or path.gz if path does not exist, and calls f
// with a reader over the uncompressed contents
func withReader(path string, f func(io.Reader) error) error {
	file, err := os.Open(path)
	gzipped := false
	if os.IsNotExist(err) {
		file, err = os.Open(path + ".gz")
		gzipped = true
	}
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if gzipped || filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	return f(r)
}

// readImages reads an IDX image file, returning the raw pixels along
// with the number of images and the dimensions of each image
func readImages(r io.Reader) (pixels []byte, n, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%w: could not read header: %v",
			ErrFormat, err)
	}
	if header[0] != imageMagic {
		return nil, 0, 0, 0, fmt.Errorf("%w: bad image magic number "+
			"\n\twant(%#08x)\n\thave(%#08x)", ErrFormat, imageMagic, header[0])
	}

	if header[2] > MaxDim || header[3] > MaxDim {
		return nil, 0, 0, 0, fmt.Errorf("%w: image dimensions too large"+
			"\n\twant(<=%v, <=%v)\n\thave(%v, %v)", ErrFormat, MaxDim,
			MaxDim, header[2], header[3])
	}

	// Cannot overflow: n < 2^32 and rows*cols <= 2^24
	size := uint64(header[1]) * uint64(header[2]) * uint64(header[3])
	if size > math.MaxInt32 {
		return nil, 0, 0, 0, fmt.Errorf("%w: %v images of %vx%v pixels "+
			"exceed %v bytes", ErrFormat, header[1], header[2], header[3],
			int64(math.MaxInt32))
	}

	n, rows, cols = int(header[1]), int(header[2]), int(header[3])
	pixels, err = readBody(r, int(size))
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%w: could not read %v images: %v",
			ErrFormat, n, err)
	}
	return pixels, n, rows, cols, nil
}

// readBody reads exactly size bytes from r. Memory is allocated in
// chunks as bytes arrive, so a header claiming more data than r holds
// fails without allocating the claimed size.
func readBody(r io.Reader, size int) ([]byte, error) {
	var buf bytes.Buffer
	if size < chunkSize {
		buf.Grow(size)
	} else {
		buf.Grow(chunkSize)
	}

	read, err := io.Copy(&buf, io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if read != int64(size) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

// readLabels reads an IDX label file
func readLabels(r io.Reader) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: could not read header: %v", ErrFormat,
			err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("%w: bad label magic number "+
			"\n\twant(%#08x)\n\thave(%#08x)", ErrFormat, labelMagic, header[0])
	}

	if header[1] > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %v labels exceed %v bytes", ErrFormat,
			header[1], int64(math.MaxInt32))
	}

	raw, err := readBody(r, int(header[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: could not read %v labels: %v", ErrFormat,
			header[1], err)
	}

	labels := make([]int, len(raw))
	for i, l := range raw {
		if int(l) >= Classes {
			return nil, fmt.Errorf("%w: label %v out of range [0, %v)",
				ErrFormat, l, Classes)
		}
		labels[i] = int(l)
	}
	return labels, nil
}
