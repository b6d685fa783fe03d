package production

import (
	"context"

	"influencer/internal/channels"
	"influencer/internal/transcript"
)

// Writer completes prompts with a language model.
type Writer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Transcriber turns narration audio into timed words.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]transcript.Word, error)
}

// Synthesizer renders one sentence of narration.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice channels.Voice) ([]byte, error)
}

// Media performs the audio and video assembly.
type Media interface {
	JoinNarration(ctx context.Context, parts []string, out string) error
	TreatVoice(ctx context.Context, in, out string, mix channels.Mix) error
	AddMusic(ctx context.Context, voice, song, out string, volumeDB float64) error
	Render(ctx context.Context, images []string, audio, subtitles, out string) error
	Thumbnail(ctx context.Context, image, textFile, color, out string) error
}

// StockImages supplements the image library from online providers.
type StockImages interface {
	Fetch(ctx context.Context, query, dst string, perProvider int) (int, error)
}
