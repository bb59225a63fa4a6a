// Package words serves the word and meaning screens of the dashboard.
package words

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/journal"
	"github.com/kosha-admin/kosha/internal/querycache"
)

// Backend is the slice of the dictionary API the screens use.
type Backend interface {
	ListWords(ctx context.Context) ([]dictapi.Word, error)
	GetWord(ctx context.Context, word string) (dictapi.Word, error)
	CreateWord(ctx context.Context, in dictapi.WordInput) (dictapi.Message, error)
	EditWord(ctx context.Context, word string, in dictapi.WordInput) (dictapi.Message, error)
	DeleteWord(ctx context.Context, word string) (dictapi.Message, error)
	GetWordMeanings(ctx context.Context, word string) ([]dictapi.Meaning, error)
	GetWordMeaning(ctx context.Context, word string, meaningID int64) (dictapi.Meaning, error)
	CreateWordMeaning(ctx context.Context, word, meaning string) (dictapi.Message, error)
	DeleteWordMeaning(ctx context.Context, word string, meaningID int64) (dictapi.Message, error)
	DeleteWordAllMeanings(ctx context.Context, word string) (dictapi.Message, error)
}

// Journal records completed mutations.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry)
}

// Service reads words through the query cache and applies mutations,
// invalidating what they touch.
type Service struct {
	backend Backend
	cache   *querycache.Cache
	journal Journal
	logger  *slog.Logger
}

// NewService constructs a Service. cache and journal may be nil.
func NewService(backend Backend, cache *querycache.Cache, journal Journal, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, cache: cache, journal: journal, logger: logger}
}

var listKey = querycache.Key{"words"}

func wordKey(word string) querycache.Key {
	return querycache.Key{"words", word}
}

// List returns every word.
func (s *Service) List(ctx context.Context) ([]dictapi.Word, error) {
	return querycache.Fetch(ctx, s.cache, listKey, s.backend.ListWords)
}

// Get returns one word.
func (s *Service) Get(ctx context.Context, word string) (dictapi.Word, error) {
	return querycache.Fetch(ctx, s.cache, wordKey(word), func(ctx context.Context) (dictapi.Word, error) {
		return s.backend.GetWord(ctx, word)
	})
}

// Meanings returns all meanings of word.
func (s *Service) Meanings(ctx context.Context, word string) ([]dictapi.Meaning, error) {
	return querycache.Fetch(ctx, s.cache, append(wordKey(word), "meanings"), func(ctx context.Context) ([]dictapi.Meaning, error) {
		return s.backend.GetWordMeanings(ctx, word)
	})
}

// Meaning returns a single meaning of word.
func (s *Service) Meaning(ctx context.Context, word string, id int64) (dictapi.Meaning, error) {
	key := append(wordKey(word), "meanings", strconv.FormatInt(id, 10))
	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (dictapi.Meaning, error) {
		return s.backend.GetWordMeaning(ctx, word, id)
	})
}

// Create adds a word.
func (s *Service) Create(ctx context.Context, in dictapi.WordInput) (dictapi.Message, error) {
	msg, err := s.backend.CreateWord(ctx, in)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, journal.ActionWordCreate, journal.ResourceWord, in.SanskritWord, map[string]string{
		"english_transliteration": in.EnglishTransliteration,
	})
	return msg, nil
}

// Edit updates word, which may be renamed by in.
func (s *Service) Edit(ctx context.Context, word string, in dictapi.WordInput) (dictapi.Message, error) {
	msg, err := s.backend.EditWord(ctx, word, in)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	detail := map[string]string{"english_transliteration": in.EnglishTransliteration}
	if in.SanskritWord != word {
		detail["renamed_to"] = in.SanskritWord
	}
	s.record(ctx, journal.ActionWordEdit, journal.ResourceWord, word, detail)
	return msg, nil
}

// Delete removes word.
func (s *Service) Delete(ctx context.Context, word string) (dictapi.Message, error) {
	msg, err := s.backend.DeleteWord(ctx, word)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, journal.ActionWordDelete, journal.ResourceWord, word, nil)
	return msg, nil
}

// AddMeaning appends a meaning to word.
func (s *Service) AddMeaning(ctx context.Context, word, meaning string) (dictapi.Message, error) {
	msg, err := s.backend.CreateWordMeaning(ctx, word, meaning)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, journal.ActionMeaningCreate, journal.ResourceMeaning, word, map[string]string{"meaning": meaning})
	return msg, nil
}

// DeleteMeaning removes one meaning of word.
func (s *Service) DeleteMeaning(ctx context.Context, word string, id int64) (dictapi.Message, error) {
	msg, err := s.backend.DeleteWordMeaning(ctx, word, id)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, journal.ActionMeaningDelete, journal.ResourceMeaning, word, map[string]string{
		"meaning_id": strconv.FormatInt(id, 10),
	})
	return msg, nil
}

// DeleteAllMeanings removes every meaning of word.
func (s *Service) DeleteAllMeanings(ctx context.Context, word string) (dictapi.Message, error) {
	msg, err := s.backend.DeleteWordAllMeanings(ctx, word)
	if err != nil {
		return dictapi.Message{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, journal.ActionMeaningDeleteAll, journal.ResourceMeaning, word, nil)
	return msg, nil
}

// invalidate drops the word list together with every cached word, since
// all word keys extend listKey. A failed invalidation leaves entries to
// expire with their TTL.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, listKey); err != nil {
		s.logger.Warn("invalidate query cache", slog.String("key", listKey.String()), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action, resource, id string, detail map[string]string) {
	if s.journal == nil {
		return
	}
	s.journal.Record(ctx, journal.Entry{Action: action, Resource: resource, ResourceID: id, Detail: detail})
}
