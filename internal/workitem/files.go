package workitem

// Files an item folder accumulates besides the stage markers.
const (
	ThemeFile         = "theme.txt"
	TitleFile         = "title.txt"
	ScriptFile        = "script.txt"
	FooterFile        = "footer.txt"
	ThumbnailTextFile = "thumbnail.txt"
	KeywordsFile      = "keywords.txt"
	PhoneticFile      = "modified_script.txt"
	DateFile          = "date.txt"
	ReviewFile        = "subtitle_review.txt"
	SubtitlesFile     = "subtitles.srt"
	VideoFile         = "video.mp4"

	ImagesDir = "images"
	TextsDir  = "texts"
	AudiosDir = "audios"

	// VoiceFile is the treated narration the transcript is taken from.
	VoiceFile = "audios/audio_subtitles.mp3"
	// MixFile is the narration with background music, used for the render.
	MixFile = "audios/audio_music.mp3"
)
