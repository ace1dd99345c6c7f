package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/voxkit/voicepad/internal/config"
	"github.com/voxkit/voicepad/internal/observe"
	"github.com/voxkit/voicepad/internal/orchestrator"
	"github.com/voxkit/voicepad/internal/session"
	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
	"github.com/voxkit/voicepad/pkg/provider/tts"
)

// pageData feeds the index template. A zero value renders the bare page.
type pageData struct {
	Text       string
	Transcript string
	Similarity string // formatted percentage, empty when no round trip yet

	Voices           []tts.Voice
	SelectedVoice    string
	SelectedLanguage string

	// AudioSrc is a data URI for the synthesized artifact. Marked as a URL
	// so html/template does not escape the base64 payload.
	AudioSrc template.URL

	Error  string
	Notice string

	Recorder       config.RecorderMode
	CanTranscribe  bool
	MaxUploadBytes int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	s.render(w, r, s.pageFor(r, sess))
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	sess.SetVoice(r.PostFormValue("voice"), r.PostFormValue("language"))

	text := r.PostFormValue("text")
	art, err := s.orch.Speak(r.Context(), sess, text)

	data := s.pageFor(r, sess)
	switch {
	case err == nil:
		data.Text = text
		data.AudioSrc = dataURI(art)
	case errors.Is(err, orchestrator.ErrBlankText):
		// Slot is untouched; re-render its current value.
		data.Error = "Type some text before pressing speak."
	case errors.Is(err, orchestrator.ErrSynthesisInFlight):
		data.Text = text
		data.Error = "A synthesis for this session is still running. Try again in a moment."
	default:
		observe.Logger(r.Context()).Error("synthesis failed", "session", sess.ID, "err", err)
		data.Text = text
		data.Error = "Speech synthesis failed. Check the server logs and try again."
	}
	s.render(w, r, data)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		data := s.pageFor(r, sess)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			data.Error = fmt.Sprintf("The file exceeds the %d MiB upload limit.", s.maxUploadBytes>>20)
		} else {
			data.Error = "Select an audio file to transcribe."
		}
		s.render(w, r, data)
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(header.Filename)), ".")
	hint := audio.ContainerForExtension(ext)
	if hint == audio.ContainerUnknown {
		data := s.pageFor(r, sess)
		data.Error = fmt.Sprintf("Unsupported file type %q. Upload wav, mp3 or ogg audio.", ext)
		s.render(w, r, data)
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		data := s.pageFor(r, sess)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			data.Error = fmt.Sprintf("The file exceeds the %d MiB upload limit.", s.maxUploadBytes>>20)
		} else {
			data.Error = "Reading the upload failed. Try again."
		}
		s.render(w, r, data)
		return
	}

	res, err := s.orch.Transcribe(r.Context(), sess, raw, hint)
	data := s.pageFor(r, sess)
	switch {
	case err == nil:
		applyResult(data, res)
	case errors.Is(err, orchestrator.ErrNoRecognizer):
		data.Error = "No speech recognizer is configured on this server."
	case errors.Is(err, audio.ErrEmptyInput):
		data.Error = "The uploaded file contains no audio."
	case errors.Is(err, audio.ErrUnsupportedFormat):
		data.Error = "The file could not be decoded. Upload wav, mp3 or ogg audio."
	default:
		observe.Logger(r.Context()).Error("transcription failed", "session", sess.ID, "err", err)
		data.Error = "Transcription failed. Check the server logs and try again."
	}
	s.render(w, r, data)
}

// pageFor builds the page state for a session: its current text, transcript
// and voice selection, plus the voice catalogue.
func (s *Server) pageFor(r *http.Request, sess *session.Session) *pageData {
	voices, err := s.orch.Voices(r.Context())
	if err != nil {
		observe.Logger(r.Context()).Warn("listing voices failed", "err", err)
	}
	voiceID, language := sess.Voice()
	data := &pageData{
		Text:             sess.Text(),
		Transcript:       sess.Transcript(),
		Voices:           voices,
		SelectedVoice:    voiceID,
		SelectedLanguage: language,
		Recorder:         s.recorder,
		CanTranscribe:    s.orch.CanTranscribe(),
		MaxUploadBytes:   s.maxUploadBytes,
	}
	if sim := sess.Similarity(); sim > 0 {
		data.Similarity = fmt.Sprintf("%.0f%%", sim*100)
	}
	return data
}

// applyResult maps a tagged recognition outcome onto the page.
func applyResult(data *pageData, res stt.Result) {
	switch res.Status {
	case stt.StatusSuccess:
		data.Text = res.Text
		data.Transcript = res.Text
		data.Notice = "Transcript applied to the text slot."
	case stt.StatusUnintelligible:
		data.Error = "Could not make out any speech in that audio."
	case stt.StatusServiceFailure:
		if res.Detail != "" {
			data.Error = "The recognition service failed: " + res.Detail
		} else {
			data.Error = "The recognition service failed. Try again."
		}
	}
}

// dataURI renders an artifact as a base64 data URI the <audio> element can
// play without a second request.
func dataURI(art audio.Artifact) template.URL {
	return template.URL("data:" + art.MIME + ";base64," + base64.StdEncoding.EncodeToString(art.Data))
}
