package spc

import (
	"context"
	"errors"
	"github.com/shimmeringbee/logwrap"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

const areasPayload = `{"status":"success","data":{"area":[
{"id":"1","name":"House","mode":"3","last_set_user_name":"Pelle","last_unset_user_name":"Lisa"},
{"id":"3","name":"Garage","mode":"0","last_set_user_name":"Lisa","last_unset_user_name":"Pelle"}]}}`

const zonesPayload = `{"status":"success","data":{"zone":[
{"id":"1","zone_name":"Entrance","area":"1","input":"0","type":"1","status":"0"},
{"id":"2","zone_name":"Living room","area":"1","input":"1","type":"0","status":"0"},
{"id":"3","zone_name":"Smoke sensor","area":"1","input":"0","type":"3","status":"0"},
{"id":"5","zone_name":"Garage door","area":"3","input":"0","type":"0","status":"0"}]}}`

const singleAreaWrappedPayload = `{"status":"success","data":{"area":[{"id":"1","name":"House","mode":"0","last_set_user_name":"Pelle","last_unset_user_name":"Lisa"}]}}`
const singleAreaBarePayload = `{"status":"success","data":{"area":{"id":"1","name":"House","mode":"0","last_set_user_name":"Pelle","last_unset_user_name":"Lisa"}}}`
const singleZonePayload = `{"status":"success","data":{"zone":{"id":"3","zone_name":"Smoke sensor","area":"1","input":"1","type":"3","status":"5"}}}`

type fakeWebGateway struct {
	lock      sync.Mutex
	requests  []string
	responses map[string]string
	delay     time.Duration
}

func newFakeWebGateway(responses map[string]string) (*fakeWebGateway, *httptest.Server) {
	f := &fakeWebGateway{responses: responses}
	return f, httptest.NewServer(f)
}

func (f *fakeWebGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	f.lock.Lock()
	f.requests = append(f.requests, key)
	body, found := f.responses[key]
	delay := f.delay
	f.lock.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeWebGateway) Requests() []string {
	f.lock.Lock()
	defer f.lock.Unlock()

	return append([]string(nil), f.requests...)
}

func (f *fakeWebGateway) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.requests = nil
}

type recordedLog struct {
	Level   logwrap.LogLevel
	Message string
}

type logRecorder struct {
	lock    sync.Mutex
	entries []recordedLog
}

func (r *logRecorder) record(_ context.Context, m logwrap.Message) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.entries = append(r.entries, recordedLog{Level: m.Level, Message: m.Message})
}

func (r *logRecorder) Logger() logwrap.Logger {
	return logwrap.New(r.record)
}

func (r *logRecorder) AtLevel(level logwrap.LogLevel) []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	var messages []string
	for _, e := range r.entries {
		if e.Level == level {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

type nullSubscriber struct {
	started int
}

func (n *nullSubscriber) Start(context.Context) error {
	n.started++
	return nil
}

func (n *nullSubscriber) Stop() {}

type failingSubscriber struct {
	failures int
	started  int
}

func (f *failingSubscriber) Start(context.Context) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("subscriber failed to start")
	}

	f.started++
	return nil
}

func (f *failingSubscriber) Stop() {}
