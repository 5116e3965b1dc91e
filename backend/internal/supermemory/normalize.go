package supermemory

import (
	"encoding/json"
	"fmt"
)

// The store serves documents under several envelope and field spellings
// depending on endpoint generation. All of them are collapsed into the
// canonical Memory record here, once, instead of at call sites.

// rawDocument covers both the "text" and "content" field spellings
type rawDocument struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

func (d rawDocument) toMemory() Memory {
	text := d.Text
	if text == "" {
		text = d.Content
	}
	return Memory{ID: d.ID, Text: text, Metadata: d.Metadata}
}

// envelope is the set of list shapes the store is known to return
type envelope struct {
	Results   []rawDocument `json:"results"`
	Documents []rawDocument `json:"documents"`
	Memories  []rawDocument `json:"memories"`
}

// decodeDocumentList normalizes any known list envelope (or a bare array)
// into canonical memories
func decodeDocumentList(body []byte) ([]Memory, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		var docs []rawDocument
		switch {
		case env.Results != nil:
			docs = env.Results
		case env.Documents != nil:
			docs = env.Documents
		case env.Memories != nil:
			docs = env.Memories
		}
		if docs != nil {
			return docsToMemories(docs), nil
		}
	}

	var bare []rawDocument
	if err := json.Unmarshal(body, &bare); err == nil {
		return docsToMemories(bare), nil
	}

	return nil, fmt.Errorf("unrecognized document list shape")
}

// decodeDocument normalizes a single-document response
func decodeDocument(body []byte) (*Memory, error) {
	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unrecognized document shape: %w", err)
	}
	mem := doc.toMemory()
	return &mem, nil
}

func docsToMemories(docs []rawDocument) []Memory {
	memories := make([]Memory, 0, len(docs))
	for _, d := range docs {
		memories = append(memories, d.toMemory())
	}
	return memories
}
