package checksum

import (
	"fmt"
	"io"
	"sync"

	"emperror.dev/errors"
)

type pipe struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

// Writer computes several digests of a stream concurrently while
// optionally forwarding the data to destination writers. Every digest
// runs in its own goroutine fed by a pipe.
type Writer struct {
	pipes    map[string]pipe
	mw       io.Writer
	done     chan bool
	open     bool
	size     int64
	dataLock sync.Mutex
	sums     map[DigestAlgorithm]string
	errors   []error
}

func NewWriter(algs []DigestAlgorithm, dst ...io.Writer) (*Writer, error) {
	for _, alg := range algs {
		if !HashExists(alg) {
			return nil, errors.Errorf("unknown hash algorithm '%s'", alg)
		}
	}
	w := &Writer{
		pipes: map[string]pipe{},
		done:  make(chan bool),
		open:  true,
		sums:  map[DigestAlgorithm]string{},
	}
	for _, alg := range algs {
		if _, ok := w.pipes[string(alg)]; ok {
			continue
		}
		p := pipe{}
		p.reader, p.writer = io.Pipe()
		w.pipes[string(alg)] = p
		go w.digest(p.reader, alg)
	}
	if len(dst) > 0 {
		p := pipe{}
		p.reader, p.writer = io.Pipe()
		w.pipes["_"] = p
		target := io.MultiWriter(dst...)
		go func() {
			// we should end in all cases
			defer func() { w.done <- true }()
			if _, err := io.Copy(target, p.reader); err != nil {
				w.setError(errors.Wrap(err, "cannot copy to target destination"))
				_ = p.reader.CloseWithError(err)
			}
		}()
	}
	writers := make([]io.Writer, 0, len(w.pipes))
	for _, p := range w.pipes {
		writers = append(writers, p.writer)
	}
	w.mw = io.MultiWriter(writers...)
	return w, nil
}

func (w *Writer) digest(reader *io.PipeReader, alg DigestAlgorithm) {
	defer func() { w.done <- true }()
	sink, err := GetHash(alg)
	if err != nil {
		w.setError(err)
		_, _ = io.Copy(io.Discard, reader)
		return
	}
	if _, err := io.Copy(sink, reader); err != nil {
		w.setError(errors.Wrapf(err, "cannot create checksum %s", alg))
		return
	}
	w.dataLock.Lock()
	defer w.dataLock.Unlock()
	w.sums[alg] = fmt.Sprintf("%x", sink.Sum(nil))
}

func (w *Writer) setError(err error) {
	w.dataLock.Lock()
	defer w.dataLock.Unlock()
	w.errors = append(w.errors, err)
}

func (w *Writer) Write(p []byte) (int, error) {
	if !w.open {
		return 0, errors.New("writer already closed")
	}
	n, err := w.mw.Write(p)
	w.size += int64(n)
	return n, err
}

// Close waits for all digests and the destinations to finish.
func (w *Writer) Close() error {
	if !w.open {
		return errors.New("writer already closed")
	}
	w.open = false
	for key, p := range w.pipes {
		if err := p.writer.Close(); err != nil {
			w.setError(errors.Wrapf(err, "error closing pipe '%s'", key))
		}
	}
	for cnt := 0; cnt < len(w.pipes); cnt++ {
		<-w.done
	}
	w.dataLock.Lock()
	defer w.dataLock.Unlock()
	return errors.Combine(w.errors...)
}

// Sums returns the hex encoded digests. Only valid after Close.
func (w *Writer) Sums() map[DigestAlgorithm]string {
	w.dataLock.Lock()
	defer w.dataLock.Unlock()
	result := make(map[DigestAlgorithm]string, len(w.sums))
	for alg, sum := range w.sums {
		result[alg] = sum
	}
	return result
}

// Size is the number of bytes written.
func (w *Writer) Size() int64 {
	return w.size
}

var _ io.WriteCloser = (*Writer)(nil)
