// Package hashpipe drives the fingerprint.Fingerprinter across a scanned
// file list using one of two concurrency strategies: many files in
// parallel (SSD) or one file at a time with reader/hasher overlap
// (rotational), per spec §4.3/§5.
package hashpipe

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"time"

	"duskvault/fingerprint"
	"duskvault/taskpool"
)

// blockQueuePollTimeout is how often the rotational hasher polls its block
// queue for a cancellation signal, per spec §5.
const blockQueuePollTimeout = 250 * time.Millisecond

// blockQueueCapacity bounds the single-producer/single-consumer block queue
// used by the rotational strategy, per spec §5.
const blockQueueCapacity = 100

// Result pairs a path with its computed Info or an error.
type Result struct {
	Path string
	Info fingerprint.Info
	Err  error
}

// Options configures a Pipeline run.
type Options struct {
	// IsSSD selects the concurrency strategy: true for many-files-in-parallel,
	// false for one-file-at-a-time with reader/hasher overlap.
	IsSSD bool
	// SimpleCompare requests size+mtime fingerprints only, skipping hashing.
	SimpleCompare bool
	// SSDConcurrency bounds parallelism when IsSSD is true. Zero picks a
	// default > 1, per spec's "degree of parallelism is implementation
	// defined but must be > 1".
	SSDConcurrency int
	// Fingerprinter supplies the block size; nil uses fingerprint.New().
	Fingerprinter *fingerprint.Fingerprinter
	// OnProgress is called once per completed file.
	OnProgress func()
}

// Pipeline runs the configured hashing strategy over a file list.
type Pipeline struct {
	opts Options
}

// New constructs a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Fingerprinter == nil {
		opts.Fingerprinter = fingerprint.New()
	}
	if opts.SSDConcurrency <= 0 {
		opts.SSDConcurrency = 8
	}
	return &Pipeline{opts: opts}
}

// Run fingerprints every path, returning results in input order. Output
// preserves input order so downstream sorting by path stays stable across
// runs on identical inputs.
func (p *Pipeline) Run(ctx context.Context, paths []string) []Result {
	if p.opts.IsSSD {
		return p.runSSD(ctx, paths)
	}
	return p.runRotational(ctx, paths)
}

func (p *Pipeline) runSSD(ctx context.Context, paths []string) []Result {
	worker := func(ctx context.Context, path string) Result {
		info, err := p.fingerprintOne(path)
		return Result{Path: path, Info: info, Err: err}
	}
	return taskpool.Run(ctx, paths, p.opts.SSDConcurrency, worker, p.opts.OnProgress)
}

func (p *Pipeline) fingerprintOne(path string) (fingerprint.Info, error) {
	if p.opts.SimpleCompare {
		return p.opts.Fingerprinter.Simple(path)
	}
	return p.opts.Fingerprinter.Hashed(path)
}

// runRotational hashes one file at a time, but inside each file overlaps
// reading (producer) with hashing (consumer) through a bounded block queue,
// so disk I/O and CPU hashing proceed concurrently on a single spindle.
func (p *Pipeline) runRotational(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	if p.opts.SimpleCompare {
		for i, path := range paths {
			info, err := p.opts.Fingerprinter.Simple(path)
			results[i] = Result{Path: path, Info: info, Err: err}
			if p.opts.OnProgress != nil {
				p.opts.OnProgress()
			}
			if ctx.Err() != nil {
				return results
			}
		}
		return results
	}

	blockSize := p.opts.Fingerprinter.BlockSize
	if blockSize <= 0 {
		blockSize = fingerprint.DefaultBlockSize
	}
	inlineThreshold := int64(blockSize) * 5

	for i, path := range paths {
		if ctx.Err() != nil {
			return results
		}

		info, err := p.opts.Fingerprinter.Simple(path)
		if err != nil {
			results[i] = Result{Path: path, Err: err}
			if p.opts.OnProgress != nil {
				p.opts.OnProgress()
			}
			continue
		}

		if info.Size <= inlineThreshold {
			// Small files bypass the overlapped queue and hash inline.
			hashed, err := p.opts.Fingerprinter.Hashed(path)
			results[i] = Result{Path: path, Info: hashed, Err: err}
		} else {
			hash, err := hashWithOverlappedQueue(ctx, path, blockSize)
			info.Hash = hash
			results[i] = Result{Path: path, Info: info, Err: err}
		}

		if p.opts.OnProgress != nil {
			p.opts.OnProgress()
		}
	}

	return results
}

// hashWithOverlappedQueue reads path in a producer goroutine and feeds
// blocks to a consumer goroutine that updates a running SHA-256, through a
// bounded channel acting as the single-producer/single-consumer block
// queue from spec §5. The consumer polls with blockQueuePollTimeout so a
// cancelled context is observed promptly even mid-file.
func hashWithOverlappedQueue(ctx context.Context, path string, blockSize int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	blocks := make(chan []byte, blockQueueCapacity)
	readErrCh := make(chan error, 1)

	go func() {
		defer close(blocks)
		buf := make([]byte, blockSize)
		for {
			n, err := file.Read(buf)
			if n > 0 {
				block := make([]byte, n)
				copy(block, buf[:n])
				select {
				case blocks <- block:
				case <-ctx.Done():
					readErrCh <- ctx.Err()
					return
				}
			}
			if err == io.EOF {
				readErrCh <- nil
				return
			}
			if err != nil {
				readErrCh <- err
				return
			}
		}
	}()

	h := sha256.New()
	ticker := time.NewTicker(blockQueuePollTimeout)
	defer ticker.Stop()

consume:
	for {
		select {
		case block, ok := <-blocks:
			if !ok {
				break consume
			}
			h.Write(block)
		case <-ticker.C:
			if ctx.Err() != nil {
				break consume
			}
		case <-ctx.Done():
			break consume
		}
	}

	if err := <-readErrCh; err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
