package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/voxkit/voicepad/internal/observe"
	"github.com/voxkit/voicepad/internal/session"
	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
)

// The capture socket speaks a small framed protocol. The browser announces an
// utterance with a text "start" message carrying the sample rate of the raw
// PCM it is about to stream, sends the samples as binary frames (little-endian
// int16, mono), and ends the utterance with a text "stop" message. The server
// answers every "stop" with one "result" or "error" message and then waits for
// the next "start", so a held-down microphone button maps to one utterance per
// press over a single connection.

type captureRequest struct {
	Type       string `json:"type"` // "start" or "stop"
	SampleRate int    `json:"sampleRate,omitempty"`
}

type captureReply struct {
	Type       string  `json:"type"` // "result" or "error"
	Status     string  `json:"status,omitempty"`
	Text       string  `json:"text,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !s.orch.CanTranscribe() {
		http.Error(w, "no speech recognizer configured", http.StatusNotImplemented)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("capture accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.maxUploadBytes)

	ctx := r.Context()

	var (
		recording  bool
		sampleRate int
		pcm        []byte
	)
	for {
		typ, payload, err := conn.Read(ctx)
		if err != nil {
			// Browser went away or the page was closed. Normal end of life
			// for this socket.
			return
		}

		switch typ {
		case websocket.MessageBinary:
			if !recording {
				continue
			}
			if int64(len(pcm)+len(payload)) > s.maxUploadBytes {
				s.captureError(ctx, conn, "utterance too long, stopping capture")
				recording, pcm = false, nil
				continue
			}
			pcm = append(pcm, payload...)

		case websocket.MessageText:
			var req captureRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				s.captureError(ctx, conn, "malformed control message")
				continue
			}
			switch req.Type {
			case "start":
				if req.SampleRate <= 0 {
					s.captureError(ctx, conn, "start message needs a positive sampleRate")
					continue
				}
				recording, sampleRate, pcm = true, req.SampleRate, nil
			case "stop":
				if !recording {
					s.captureError(ctx, conn, "stop without start")
					continue
				}
				recording = false
				s.finishUtterance(ctx, conn, sess, pcm, sampleRate)
				pcm = nil
			default:
				s.captureError(ctx, conn, "unknown control message "+req.Type)
			}
		}
	}
}

// finishUtterance resamples the captured PCM to the canonical rate, runs
// recognition, and writes one reply message.
func (s *Server) finishUtterance(ctx context.Context, conn *websocket.Conn, sess *session.Session, pcm []byte, sampleRate int) {
	canonical := audio.ResampleMono16(pcm, sampleRate, audio.CanonicalSampleRate)

	res, err := s.orch.Transcribe(ctx, sess, canonical, audio.ContainerPCM)
	if err != nil {
		switch {
		case errors.Is(err, audio.ErrEmptyInput):
			s.captureError(ctx, conn, "no audio captured")
		default:
			observe.Logger(ctx).Error("capture transcription failed", "session", sess.ID, "err", err)
			s.captureError(ctx, conn, "transcription failed")
		}
		return
	}

	reply := captureReply{Type: "result", Status: res.Status.String()}
	switch res.Status {
	case stt.StatusSuccess:
		reply.Text = res.Text
		reply.Similarity = sess.Similarity()
	case stt.StatusServiceFailure:
		reply.Error = res.Detail
	}
	s.writeCapture(ctx, conn, reply)
}

func (s *Server) captureError(ctx context.Context, conn *websocket.Conn, msg string) {
	s.writeCapture(ctx, conn, captureReply{Type: "error", Error: msg})
}

func (s *Server) writeCapture(ctx context.Context, conn *websocket.Conn, reply captureReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		observe.Logger(ctx).Warn("capture reply write failed", "err", err)
	}
}
