package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"renderbot/internal/render"
)

type fakeRenderer struct {
	health    render.ServiceHealth
	submitErr error
	pollErr   error
	image     []byte
	progress  []int

	submitted bool
	polledID  string
}

func (f *fakeRenderer) CheckHealth(context.Context) render.ServiceHealth {
	return f.health
}

func (f *fakeRenderer) Submit(_ context.Context, prompt, style string) (*render.Submission, error) {
	f.submitted = true
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &render.Submission{JobID: "job-123", EstimatedSeconds: 50}, nil
}

func (f *fakeRenderer) Poll(_ context.Context, jobID string, _ int, onProgress render.ProgressFunc) ([]byte, error) {
	f.polledID = jobID
	for _, p := range f.progress {
		onProgress(p)
	}
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.image, nil
}

var online = render.ServiceHealth{Available: true, DeviceName: "RTX", FreeMemoryGB: 8}

func TestRunReady(t *testing.T) {
	fake := &fakeRenderer{health: online, image: []byte("img"), progress: []int{10, 20}}
	var seen []int

	res := NewRunner(fake, nil).Run(context.Background(), "castle", "anime", func(p int) { seen = append(seen, p) })
	if res.Status != StatusReady {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if string(res.Image) != "img" || res.JobID != "job-123" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.polledID != "job-123" {
		t.Fatalf("polled %q, want job-123", fake.polledID)
	}
	if !reflect.DeepEqual(seen, []int{0, 10, 20}) {
		t.Fatalf("progress = %v", seen)
	}
	if res.Err() != nil {
		t.Fatalf("Err() = %v", res.Err())
	}
}

func TestRunSkipsSubmitWhenUnavailable(t *testing.T) {
	fake := &fakeRenderer{health: render.ServiceHealth{Reason: "service returned status 503"}}

	res := NewRunner(fake, nil).Run(context.Background(), "castle", "", nil)
	if res.Status != StatusUnavailable {
		t.Fatalf("status = %s", res.Status)
	}
	if fake.submitted {
		t.Fatalf("submit must not run when the service is unavailable")
	}
	if res.Err() == nil {
		t.Fatalf("expected Err() for unavailable result")
	}
}

func TestRunMapsErrors(t *testing.T) {
	cases := []struct {
		name      string
		submitErr error
		pollErr   error
		want      Status
	}{
		{"validation", &render.Error{Kind: render.ErrValidation, Message: "bad"}, nil, StatusInvalid},
		{"exhausted", &render.Error{Kind: render.ErrExhaustedRetries, Message: "failed to start generation after 3 attempts"}, nil, StatusExhausted},
		{"timeout", nil, &render.Error{Kind: render.ErrTimedOut, Message: "timed out"}, StatusTimedOut},
		{"cancelled", nil, &render.Error{Kind: render.ErrCancelled, Message: "cancelled", Cause: context.Canceled}, StatusCancelled},
		{"malformed", nil, &render.Error{Kind: render.ErrMalformedResponse, Message: "broken"}, StatusMalformed},
		{"other", nil, errors.New("boom"), StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRenderer{health: online, submitErr: tc.submitErr, pollErr: tc.pollErr}
			res := NewRunner(fake, nil).Run(context.Background(), "castle", "", nil)
			if res.Status != tc.want {
				t.Fatalf("status = %s, want %s", res.Status, tc.want)
			}
			if res.Message == "" {
				t.Fatalf("expected a message")
			}
		})
	}
}
