package deepgram_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxkit/voicepad/pkg/audio"
	"github.com/voxkit/voicepad/pkg/provider/stt"
	"github.com/voxkit/voicepad/pkg/provider/stt/deepgram"
)

const successBody = `{"results":{"channels":[{"alternatives":[
	{"transcript":"hi there","confidence":0.97}
]}]}}`

func testWaveform() audio.Waveform {
	return audio.Waveform{Data: make([]byte, 3200), SampleRate: 16000, Channels: 1}
}

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	if _, err := deepgram.New(""); err == nil {
		t.Fatal("expected error for empty apiKey")
	}
}

func TestTranscribe_Success(t *testing.T) {
	var gotAuth, gotModel, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotModel = r.URL.Query().Get("model")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	p, _ := deepgram.New("dg-key", deepgram.WithBaseURL(srv.URL), deepgram.WithModel("nova-2"))
	res, err := p.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Status != stt.StatusSuccess || res.Text != "hi there" {
		t.Errorf("result = %+v, want success/hi there", res)
	}
	if res.Confidence != 0.97 {
		t.Errorf("Confidence = %f, want 0.97", res.Confidence)
	}
	if gotAuth != "Token dg-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != "nova-2" {
		t.Errorf("model = %q", gotModel)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", gotContentType)
	}
}

func TestTranscribe_EmptyTranscript_ReturnsUnintelligible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"","confidence":0}]}]}}`))
	}))
	defer srv.Close()

	p, _ := deepgram.New("key", deepgram.WithBaseURL(srv.URL))
	res, err := p.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Status != stt.StatusUnintelligible {
		t.Errorf("Status = %v, want unintelligible", res.Status)
	}
}

func TestTranscribe_HTTPError_ReturnsServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := deepgram.New("key", deepgram.WithBaseURL(srv.URL))
	res, err := p.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Status != stt.StatusServiceFailure {
		t.Errorf("Status = %v, want service-failure", res.Status)
	}
}

func TestTranscribe_Unreachable_ReturnsServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	p, _ := deepgram.New("key", deepgram.WithBaseURL(srv.URL))
	res, err := p.Transcribe(context.Background(), testWaveform())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Status != stt.StatusServiceFailure {
		t.Errorf("Status = %v, want service-failure", res.Status)
	}
}
