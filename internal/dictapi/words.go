package dictapi

import (
	"context"
	"net/http"
	"strconv"
)

// Word is a dictionary headword.
type Word struct {
	SanskritWord           string  `json:"sanskrit_word"`
	EnglishTransliteration string  `json:"english_transliteration"`
	MeaningIDs             []int64 `json:"meaning_ids,omitempty"`
}

// Meaning is one sense of a word.
type Meaning struct {
	ID      int64  `json:"meaning_id"`
	Meaning string `json:"meaning"`
}

// Message acknowledges a mutation.
type Message struct {
	Message string `json:"message"`
}

// WordInput is the payload for creating or editing a word.
type WordInput struct {
	SanskritWord           string `json:"sanskrit_word"`
	EnglishTransliteration string `json:"english_transliteration"`
}

// ListWords fetches every word.
func (c *Client) ListWords(ctx context.Context) ([]Word, error) {
	var words []Word
	if err := c.get(ctx, &words, "words"); err != nil {
		return nil, err
	}
	return words, nil
}

// GetWord fetches one word with its meaning ids.
func (c *Client) GetWord(ctx context.Context, word string) (Word, error) {
	var w Word
	if err := c.get(ctx, &w, "words", word); err != nil {
		return Word{}, err
	}
	return w, nil
}

// CreateWord adds a word.
func (c *Client) CreateWord(ctx context.Context, in WordInput) (Message, error) {
	return c.mutate(ctx, http.MethodPost, in, "words")
}

// EditWord updates the word currently stored as word. The input may rename
// it.
func (c *Client) EditWord(ctx context.Context, word string, in WordInput) (Message, error) {
	return c.mutate(ctx, http.MethodPut, in, "words", word)
}

// DeleteWord removes a word.
func (c *Client) DeleteWord(ctx context.Context, word string) (Message, error) {
	return c.mutate(ctx, http.MethodDelete, nil, "words", word)
}

// GetWordMeanings fetches all meanings of a word.
func (c *Client) GetWordMeanings(ctx context.Context, word string) ([]Meaning, error) {
	var meanings []Meaning
	if err := c.get(ctx, &meanings, "words", word, "meanings"); err != nil {
		return nil, err
	}
	return meanings, nil
}

// GetWordMeaning fetches a single meaning.
func (c *Client) GetWordMeaning(ctx context.Context, word string, meaningID int64) (Meaning, error) {
	var m Meaning
	if err := c.get(ctx, &m, "words", word, "meanings", strconv.FormatInt(meaningID, 10)); err != nil {
		return Meaning{}, err
	}
	return m, nil
}

// CreateWordMeaning adds a meaning to a word.
func (c *Client) CreateWordMeaning(ctx context.Context, word, meaning string) (Message, error) {
	return c.mutate(ctx, http.MethodPost, map[string]string{"meaning": meaning}, "words", word, "meanings")
}

// DeleteWordMeaning removes one meaning.
func (c *Client) DeleteWordMeaning(ctx context.Context, word string, meaningID int64) (Message, error) {
	return c.mutate(ctx, http.MethodDelete, nil, "words", word, "meanings", strconv.FormatInt(meaningID, 10))
}

// DeleteWordAllMeanings removes every meaning of a word.
func (c *Client) DeleteWordAllMeanings(ctx context.Context, word string) (Message, error) {
	return c.mutate(ctx, http.MethodDelete, nil, "words", word, "meanings")
}
