package market

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"coinpulse/logger"
	"coinpulse/model"

	"github.com/fsnotify/fsnotify"
)

// builtinMemes is the shipped meme rotation, used when no curated file is
// present or the file is unreadable.
var builtinMemes = []model.Meme{
	{Title: "Crypto pain", Img: "https://img-9gag-fun.9cache.com/photo/ae9qODm_700bwp.webp"},
	{Title: "HODL", Img: "https://img-9gag-fun.9cache.com/photo/a0eGWRL_700bwp.webp"},
	{Title: "You have IOU", Img: "https://img-9gag-fun.9cache.com/photo/avyVedd_460swp.webp"},
	{Title: "Market volatility", Img: "https://img-9gag-fun.9cache.com/photo/a2vAX8O_460swp.webp"},
	{Title: "People still trying to get rich from stocks be like in 2026", Img: "https://i.imgflip.com/s6dhc.jpg"},
}

// MemeResponse is the wire shape of a meme reply.
type MemeResponse struct {
	Title     string `json:"title"`
	Img       string `json:"img"`
	UpdatedAt string `json:"updatedAt"`
}

// MemeService serves a meme-of-the-day widget from a curated JSON file,
// hot reloading the file when it changes.
type MemeService struct {
	mu      sync.RWMutex
	memes   []model.Meme
	path    string
	watcher *fsnotify.Watcher
	now     func() time.Time
}

// NewMemeService creates a meme service backed by the curated file at path.
// The built-in rotation is used until the file is readable.
func NewMemeService(path string) *MemeService {
	s := &MemeService{
		memes: builtinMemes,
		path:  path,
		now:   time.Now,
	}
	s.reload()
	return s
}

// reload swaps in the curated file if it parses to a non-empty list.
func (s *MemeService) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var memes []model.Meme
	if err := json.Unmarshal(data, &memes); err != nil {
		logger.Warn("unparseable meme file, keeping current rotation",
			logger.String("path", s.path), logger.ErrorField(err))
		return
	}
	if len(memes) == 0 {
		return
	}

	s.mu.Lock()
	s.memes = memes
	s.mu.Unlock()
	logger.Info("meme rotation reloaded", logger.String("path", s.path), logger.Int("count", len(memes)))
}

// Watch starts watching the curated file's directory and hot reloads the
// rotation on changes. Call Close to stop.
func (s *MemeService) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					s.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("meme file watcher error", logger.ErrorField(err))
			}
		}
	}()

	return nil
}

// Close stops the file watcher.
func (s *MemeService) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Count returns the size of the current rotation.
func (s *MemeService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memes)
}

// Random picks one meme from the current rotation.
func (s *MemeService) Random() *MemeResponse {
	s.mu.RLock()
	meme := s.memes[rand.Intn(len(s.memes))]
	s.mu.RUnlock()

	return &MemeResponse{
		Title:     meme.Title,
		Img:       meme.Img,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
}
