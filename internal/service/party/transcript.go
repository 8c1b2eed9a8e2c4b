package party

import "sync"

// fragments are raw, unpunctuated speech snippets standing in for live audio transcription.
var fragments = []string{
	"so um this is where it all starts i guess",
	"look over there theres something moving in the grass",
	"wait wait dont go that way its not safe",
	"i i think we should head back before it gets dark",
	"okay everybody listen up we need a plan",
	"did you hear that no seriously what was that",
}

// Transcript cycles through the stock fragments, keeping one position per video title.
type Transcript struct {
	mu  sync.Mutex
	pos map[string]int
}

func NewTranscript() *Transcript {
	return &Transcript{pos: make(map[string]int)}
}

func (t *Transcript) Next(videoTitle string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.pos[videoTitle]
	t.pos[videoTitle] = (i + 1) % len(fragments)
	return fragments[i]
}
