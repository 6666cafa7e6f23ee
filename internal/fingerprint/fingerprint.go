// Package fingerprint computes stable content hashes for files, used to
// identify a document version independent of its path.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
)

// DefaultWorkers bounds how many files are hashed concurrently.
const DefaultWorkers = 4

// File returns the lowercase hex SHA-256 digest of path's contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.IoError, "open file for fingerprinting", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.Wrap(errs.IoError, "read file for fingerprinting", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Batch fingerprints every path in paths, fanning out over DefaultWorkers
// goroutines. The result maps each input path to its digest. A single
// unreadable file does not abort the batch; its error is returned in the
// errs map keyed by path.
func Batch(paths []string) (map[string]string, map[string]error) {
	return BatchN(paths, DefaultWorkers)
}

// BatchN is Batch with an explicit worker count.
func BatchN(paths []string, workers int) (map[string]string, map[string]error) {
	if workers < 1 {
		workers = 1
	}

	type result struct {
		path string
		hash string
		err  error
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				hash, err := File(p)
				results <- result{path: p, hash: hash, err: err}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	hashes := make(map[string]string, len(paths))
	failures := make(map[string]error)
	for r := range results {
		if r.err != nil {
			failures[r.path] = r.err
			continue
		}
		hashes[r.path] = r.hash
	}

	return hashes, failures
}
