package flow

const volumePromptText = `
You are an audio engineer choosing starting volume levels for a set of output devices.

Suggest a volume between 0 and 100 for each device listed below, keyed by its device ID in
"suggestedVolumes". Base each level on the device type: headphones start quieter than speakers,
and microphones need a sensible input level too.

Devices:
{{range .Devices}}- Device ID: {{.DeviceID}}, Type: {{.DeviceType}}
{{end}}`

const subtitlePromptText = `
You write live subtitles for a video watch party.
The following raw transcript snippet comes from the video "{{.VideoTitle}}".
Fix transcription mistakes, add punctuation and turn it into one short, clear subtitle line.
{{if .TargetLanguage}}
Then translate the corrected line into {{.TargetLanguage}}. Return only the translation.
{{end}}
Transcript: "{{.Transcript}}"`

const discoveryPromptText = `
You help find original subtitle tracks. Use the findOriginalSubtitles tool to look up the
subtitles for the video "{{.VideoTitle}}".

When the tool finds them, put the returned content in "subtitleTrack" and set "message" to
"Subtitles found!". Otherwise leave "subtitleTrack" empty and set "message" to
"Sorry, I couldn't find any original subtitles for that video."`
