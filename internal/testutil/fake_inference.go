// fake_inference.go - In-process stand-in for the remote inference service
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Prediction is the response item the fake returns for one file.
type Prediction struct {
	Filename   string             `json:"filename"`
	Prediction string             `json:"prediction,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Heatmap    string             `json:"heatmap,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ReceivedFile is one multipart part observed by the fake.
type ReceivedFile struct {
	Field    string
	Filename string
	Size     int
}

// Responder builds the reply for a request; it receives the parts in arrival order.
type Responder func(files []ReceivedFile) (status int, body []byte)

// FakeInference serves POST /predict and GET / the way the real collaborator does.
type FakeInference struct {
	Server *httptest.Server

	mu        sync.Mutex
	responder Responder
	requests  [][]ReceivedFile
	release   chan struct{}
	arrived   chan struct{}
}

// NewFakeInference starts a fake that answers every file with a confident "glioma".
// The server is closed automatically at test cleanup.
func NewFakeInference(t *testing.T) *FakeInference {
	t.Helper()

	f := &FakeInference{
		responder: EchoResponder(nil),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", f.handlePredict)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Brain tumor classifier backend is running."}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		f.Unblock()
		f.Server.Close()
	})
	return f
}

// URL returns the base URL of the fake.
func (f *FakeInference) URL() string {
	return f.Server.URL
}

// SetResponder replaces the reply builder.
func (f *FakeInference) SetResponder(r Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responder = r
}

// Block makes subsequent predict calls wait until Unblock is called.
// The returned channel receives once per request that has arrived and is waiting.
func (f *FakeInference) Block() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = make(chan struct{})
	f.arrived = make(chan struct{}, 8)
	return f.arrived
}

// Unblock releases every waiting predict call.
func (f *FakeInference) Unblock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.release != nil {
		close(f.release)
		f.release = nil
	}
}

// Requests returns the parts of every predict request received so far.
func (f *FakeInference) Requests() [][]ReceivedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]ReceivedFile, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeInference) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reader, err := r.MultipartReader()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"No image files provided."}`))
		return
	}

	var files []ReceivedFile
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(part)
		files = append(files, ReceivedFile{
			Field:    part.FormName(),
			Filename: part.FileName(),
			Size:     len(data),
		})
	}

	f.mu.Lock()
	f.requests = append(f.requests, files)
	responder := f.responder
	release := f.release
	arrived := f.arrived
	f.mu.Unlock()

	if release != nil {
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}

	status, body := responder(files)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// EchoResponder answers every received file in order, using the given predictions by filename.
// Files without an entry get "glioma" at 95%.
func EchoResponder(byName map[string]Prediction) Responder {
	return func(files []ReceivedFile) (int, []byte) {
		out := make([]Prediction, 0, len(files))
		for _, file := range files {
			if p, ok := byName[file.Filename]; ok {
				if p.Filename == "" {
					p.Filename = file.Filename
				}
				out = append(out, p)
				continue
			}
			out = append(out, Prediction{
				Filename:   file.Filename,
				Prediction: "glioma",
				Confidence: Confidence(95),
			})
		}
		body, _ := json.Marshal(out)
		return http.StatusOK, body
	}
}

// StaticResponder always replies with the given status and body.
func StaticResponder(status int, body string) Responder {
	return func([]ReceivedFile) (int, []byte) {
		return status, []byte(body)
	}
}

// Confidence returns a pointer for use in Prediction literals.
func Confidence(v float64) *float64 {
	return &v
}
