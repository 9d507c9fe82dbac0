package system

import (
	"image"
	"sync"
)

// ImagePool переиспользует буферы image.RGBA между кадрами, чтобы не
// создавать давление на GC: при потоковом рендере каждый кадр — это
// мегабайты, а живет он до записи в пайп ffmpeg.
type ImagePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &ImagePool{
	pools: make(map[string]*sync.Pool),
}

// GetFrame возвращает чистый (полностью обнуленный) кадр из пула.
func GetFrame(rect image.Rectangle) *image.RGBA {
	img := globalPool.Get(rect)
	clear(img.Pix)
	return img
}

// PutFrame возвращает кадр в пул для повторного использования.
func PutFrame(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
