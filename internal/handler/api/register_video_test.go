package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/mock"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/usecase/pipeline"
)

const testMagnet = "magnet:?xt=urn:btih:c9e15763f722f23e98a29decdfae341b98d53056"

func TestRegisterVideoHandler(t *testing.T) {
	videoID := db.UUID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	taskID := db.UUID(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	magnet := testMagnet
	out := &port.RegisterVideoOutput{
		Video: &model.Video{ID: videoID, Title: "Big Buck Bunny", MagnetURI: &magnet, Status: model.VideoStatusDiscovered},
		Task:  &model.Task{ID: taskID, VideoID: videoID, State: model.TaskStatePending, MaxRetries: 3},
	}

	tests := []struct {
		name             string
		body             string
		svcOut           *port.RegisterVideoOutput
		svcErr           error
		wantStatus       int
		wantBodyContains string
		wantSvcCalled    bool
	}{
		{
			name:       "happy path",
			body:       `{"title":"Big Buck Bunny","magnet_uri":"` + testMagnet + `"}`,
			svcOut:     out,
			wantStatus: http.StatusCreated,

			wantSvcCalled: true,
		},
		{
			name:             "invalid JSON",
			body:             `{"title":`,
			wantStatus:       http.StatusBadRequest,
			wantBodyContains: "Invalid request",
		},
		{
			name:             "missing magnet",
			body:             `{"title":"Big Buck Bunny"}`,
			wantStatus:       http.StatusBadRequest,
			wantBodyContains: "magnet_uri",
		},
		{
			name:             "not a magnet link",
			body:             `{"title":"Big Buck Bunny","magnet_uri":"https://example.com/file.mkv"}`,
			wantStatus:       http.StatusBadRequest,
			wantBodyContains: "magnet_uri",
		},
		{
			name:             "duplicate open task",
			body:             `{"title":"Big Buck Bunny","magnet_uri":"` + testMagnet + `"}`,
			svcErr:           pipeline.ErrDuplicateOpenTask,
			wantStatus:       http.StatusConflict,
			wantBodyContains: "open task",
			wantSvcCalled:    true,
		},
		{
			name:             "service failure",
			body:             `{"title":"Big Buck Bunny","magnet_uri":"` + testMagnet + `"}`,
			svcErr:           errors.New("db down"),
			wantStatus:       http.StatusInternalServerError,
			wantBodyContains: "Could not register video",
			wantSvcCalled:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mock.MockRegistrar{Out: tc.svcOut, Err: tc.svcErr}

			req := httptest.NewRequest("POST", "/videos", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			RegisterVideoHandler(svc).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if svc.Called != tc.wantSvcCalled {
				t.Errorf("svc called = %v; want %v", svc.Called, tc.wantSvcCalled)
			}
			if tc.wantBodyContains != "" && !strings.Contains(rec.Body.String(), tc.wantBodyContains) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tc.wantBodyContains)
			}

			if tc.wantStatus == http.StatusCreated {
				if svc.In.MagnetURI != testMagnet {
					t.Errorf("magnet passed to svc = %q; want %q", svc.In.MagnetURI, testMagnet)
				}
				var got port.RegisterVideoOutput
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("decoding response: %v", err)
				}
				if got.Video == nil || got.Video.ID != videoID {
					t.Errorf("video in response = %+v; want ID %s", got.Video, videoID)
				}
				if got.Task == nil || got.Task.State != model.TaskStatePending {
					t.Errorf("task in response = %+v; want pending state", got.Task)
				}
			}
		})
	}
}
