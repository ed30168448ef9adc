package exports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nomenklatur/openmusic/internal/fault"
)

type stubVerifier struct {
	err   error
	calls int
}

func (v *stubVerifier) VerifyOwner(context.Context, string, string) error {
	v.calls++
	return v.err
}

type recordingPublisher struct {
	err       error
	queueName string
	body      []byte
	published int
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published++
	p.queueName = queueName
	p.body = body
	return nil
}

func newTestService(t *testing.T, verifier *stubVerifier, publisher *recordingPublisher) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Playlists: verifier,
		Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestRequestExportPublishesJob(t *testing.T) {
	verifier := &stubVerifier{}
	publisher := &recordingPublisher{}
	service := newTestService(t, verifier, publisher)

	err := service.RequestExport(context.Background(), "playlist-xyz", "user-1", "foo@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected ownership check, got %d calls", verifier.calls)
	}
	if publisher.queueName != "playlist" {
		t.Fatalf("expected publish to the playlist queue, got %q", publisher.queueName)
	}

	var message struct {
		PlaylistID  string `json:"playlistId"`
		TargetEmail string `json:"targetEmail"`
	}
	if err := json.Unmarshal(publisher.body, &message); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if message.PlaylistID != "playlist-xyz" || message.TargetEmail != "foo@example.com" {
		t.Fatalf("unexpected message: %+v", message)
	}
}

func TestRequestExportRejectsInvalidEmail(t *testing.T) {
	verifier := &stubVerifier{}
	publisher := &recordingPublisher{}
	service := newTestService(t, verifier, publisher)

	err := service.RequestExport(context.Background(), "playlist-xyz", "user-1", "not-an-email")
	if !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected invariant fault, got %v", err)
	}
	if verifier.calls != 0 {
		t.Fatalf("ownership must not be checked for invalid payloads")
	}
	if publisher.published != 0 {
		t.Fatalf("no message may be published for invalid payloads")
	}
}

func TestRequestExportPropagatesOwnershipFaults(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "forbidden", err: fault.Forbidden("you do not have access to this playlist"), want: fault.ErrForbidden},
		{name: "not-found", err: fault.NotFound("playlist not found"), want: fault.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{err: tt.err}
			publisher := &recordingPublisher{}
			service := newTestService(t, verifier, publisher)

			err := service.RequestExport(context.Background(), "playlist-xyz", "user-2", "foo@example.com")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v to propagate, got %v", tt.want, err)
			}
			if publisher.published != 0 {
				t.Fatalf("no message may be published when ownership fails")
			}
		})
	}
}

func TestRequestExportSurfacesPublishFailure(t *testing.T) {
	verifier := &stubVerifier{}
	publisher := &recordingPublisher{err: errors.New("broker unreachable")}
	service := newTestService(t, verifier, publisher)

	err := service.RequestExport(context.Background(), "playlist-xyz", "user-1", "foo@example.com")
	if err == nil {
		t.Fatalf("expected publish failure to propagate")
	}
	if errors.Is(err, fault.ErrInvariant) || errors.Is(err, fault.ErrNotFound) || errors.Is(err, fault.ErrForbidden) {
		t.Fatalf("publish failure must surface as a server-side error, got %v", err)
	}
}
