package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/pixav/maxwell/internal/port"
)

const (
	TypeDownloadVideo = "pipeline:download"
	TypeUploadVideo   = "pipeline:upload"
	TypeVerifyUpload  = "pipeline:verify"
)

type DownloadVideoPayload struct {
	TaskID     string `json:"task_id"`
	VideoID    string `json:"video_id"`
	MagnetURI  string `json:"magnet_uri"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"max_retries"`
}

type UploadVideoPayload struct {
	TaskID     string `json:"task_id"`
	VideoID    string `json:"video_id"`
	AccountID  string `json:"account_id"`
	LocalPath  string `json:"local_path"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"max_retries"`
}

type VerifyUploadPayload struct {
	TaskID     string `json:"task_id"`
	VideoID    string `json:"video_id"`
	ShareURL   string `json:"share_url"`
	Retries    int    `json:"retries"`
	MaxRetries int    `json:"max_retries"`
}

// NewDownloadVideoTask creates an Asynq task announcing a claimed download.
func NewDownloadVideoTask(d port.DownloadDispatch) (*asynq.Task, error) {
	p := DownloadVideoPayload{
		TaskID:     d.TaskID.String(),
		VideoID:    d.VideoID.String(),
		MagnetURI:  d.MagnetURI,
		Retries:    d.Retries,
		MaxRetries: d.MaxRetries,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal download-video payload: %w", err)
	}
	return asynq.NewTask(TypeDownloadVideo, data), nil
}

// ParseDownloadVideoPayload parses the task payload to DownloadVideoPayload.
func ParseDownloadVideoPayload(t *asynq.Task) (DownloadVideoPayload, error) {
	var p DownloadVideoPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return DownloadVideoPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}

// NewUploadVideoTask creates an Asynq task announcing an upload with its
// leased account.
func NewUploadVideoTask(d port.UploadDispatch) (*asynq.Task, error) {
	p := UploadVideoPayload{
		TaskID:     d.TaskID.String(),
		VideoID:    d.VideoID.String(),
		AccountID:  d.AccountID.String(),
		LocalPath:  d.LocalPath,
		Retries:    d.Retries,
		MaxRetries: d.MaxRetries,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal upload-video payload: %w", err)
	}
	return asynq.NewTask(TypeUploadVideo, data), nil
}

// ParseUploadVideoPayload parses the task payload to UploadVideoPayload.
func ParseUploadVideoPayload(t *asynq.Task) (UploadVideoPayload, error) {
	var p UploadVideoPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return UploadVideoPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}

// NewVerifyUploadTask creates an Asynq task announcing an upload to verify.
func NewVerifyUploadTask(d port.VerifyDispatch) (*asynq.Task, error) {
	p := VerifyUploadPayload{
		TaskID:     d.TaskID.String(),
		VideoID:    d.VideoID.String(),
		ShareURL:   d.ShareURL,
		Retries:    d.Retries,
		MaxRetries: d.MaxRetries,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal verify-upload payload: %w", err)
	}
	return asynq.NewTask(TypeVerifyUpload, data), nil
}

// ParseVerifyUploadPayload parses the task payload to VerifyUploadPayload.
func ParseVerifyUploadPayload(t *asynq.Task) (VerifyUploadPayload, error) {
	var p VerifyUploadPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return VerifyUploadPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}
