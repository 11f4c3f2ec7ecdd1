package mcp

import (
	"container/list"
	"strconv"
	"sync"

	"github.com/rendis/flagbridge/internal/pipeline"
)

// maxCachedPipelines bounds the pipelines kept per server.
const maxCachedPipelines = 64

// pipelineCache is a least-recently-used cache of pipelines keyed by the
// options that built them.
type pipelineCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recent
	entries  map[string]*list.Element
}

type cachedPipeline struct {
	key string
	p   *pipeline.Pipeline
}

func newPipelineCache(capacity int) *pipelineCache {
	return &pipelineCache{capacity: capacity, order: list.New(), entries: make(map[string]*list.Element)}
}

func pipelineKey(opts pipeline.Options) string {
	return opts.Select + "\x00" + opts.Where + "\x00" + opts.FilterLang + "\x00" + strconv.FormatBool(opts.Lint)
}

// get returns the pipeline for opts, building it with build on a miss.
// Failed builds are not cached.
func (c *pipelineCache) get(opts pipeline.Options, build func(pipeline.Options) (*pipeline.Pipeline, error)) (*pipeline.Pipeline, error) {
	key := pipelineKey(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cachedPipeline).p, nil
	}

	p, err := build(opts)
	if err != nil {
		return nil, err
	}
	c.entries[key] = c.order.PushFront(&cachedPipeline{key: key, p: p})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cachedPipeline).key)
	}
	return p, nil
}

func (c *pipelineCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
