// Package worker provides a NATS worker that processes personal voice jobs:
// provisioning requests and synthesis requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/personalvoice-service/internal/core"
	"github.com/book-expert/personalvoice-service/internal/events"
	"github.com/book-expert/personalvoice-service/internal/pathutil"
	"github.com/book-expert/personalvoice-service/internal/profile"
	"github.com/book-expert/personalvoice-service/internal/provision"
	"github.com/book-expert/personalvoice-service/internal/synth"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Provisioning polls the training operation, so its budget is much larger
// than a synthesis call's.
const (
	provisionTimeout = 10 * time.Minute
	synthesisTimeout = 2 * time.Minute
)

var (
	// ErrNoPromptAudio indicates a provisioning request without prompt recordings.
	ErrNoPromptAudio = errors.New("at least one prompt audio key is required")
	// ErrNotAudio indicates a recording key without a recognized audio extension.
	ErrNotAudio = errors.New("key does not name an audio file")
)

// BlobStore is the audio storage the worker stages job files through.
type BlobStore interface {
	core.ObjectStore
	DownloadToFile(ctx context.Context, key, dir string) (string, error)
	UploadFile(ctx context.Context, key, path string) error
}

// VoiceProvisioner runs the provisioning workflow against the voice provider.
type VoiceProvisioner interface {
	Run(ctx context.Context, cfg *profile.Config, configPath string, req provision.Request) provision.Result
}

// SpeechSynthesizer renders text to an audio file with the selected profile.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, cfg *profile.Config, outputPath string, opts synth.Options) synth.Result
}

// NatsWorker listens for personal voice jobs on NATS subjects and processes
// them.
type NatsWorker struct {
	natsConnection   *nats.Conn
	jetstreamContext nats.JetStreamContext
	provisionSubject string
	synthesisSubject string
	store            BlobStore
	provisioner      VoiceProvisioner
	synthesizer      SpeechSynthesizer
	configPath       string
	outputDir        string
	log              *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. Synthesized audio is
// staged under outputDir; an empty outputDir stages under the system temp
// directory.
func NewNatsWorker(
	natsConnection *nats.Conn,
	jetstreamContext nats.JetStreamContext,
	provisionSubject, synthesisSubject string,
	store BlobStore,
	provisioner VoiceProvisioner,
	synthesizer SpeechSynthesizer,
	configPath, outputDir string,
	log *logger.Logger,
) (*NatsWorker, error) {
	if outputDir != "" {
		err := pathutil.EnsureDir(outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}

	return &NatsWorker{
		natsConnection:   natsConnection,
		jetstreamContext: jetstreamContext,
		provisionSubject: provisionSubject,
		synthesisSubject: synthesisSubject,
		store:            store,
		provisioner:      provisioner,
		synthesizer:      synthesizer,
		configPath:       configPath,
		outputDir:        outputDir,
		log:              log,
	}, nil
}

// Run starts the worker and begins listening for messages on both subjects.
func (w *NatsWorker) Run(ctx context.Context) error {
	provisionSub, err := w.natsConnection.Subscribe(w.provisionSubject, w.handleProvisionMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.provisionSubject, err)
	}

	synthesisSub, err := w.natsConnection.Subscribe(w.synthesisSubject, w.handleSynthesisMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.synthesisSubject, err)
	}

	<-ctx.Done()

	drainErr := provisionSub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain provision subscription: %w", drainErr)
	}

	drainErr = synthesisSub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain synthesis subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleProvisionMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	var event events.ProvisionRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal provision event: %v", err)

		return
	}

	reply := &events.ProvisionCompletedEvent{
		Header:           event.Header,
		OK:               false,
		Error:            "",
		ProfileID:        "",
		SpeakerProfileID: "",
		OperationID:      "",
		Status:           "",
	}

	result, err := w.processProvisionJob(ctx, &event)
	switch {
	case err != nil:
		w.log.Error("Failed to process provision job for workflow %s: %v", event.Header.WorkflowID, err)

		reply.Error = err.Error()
	case !result.OK:
		w.log.Error("Provisioning failed for workflow %s: %s", event.Header.WorkflowID, result.Error)

		reply.Error = result.Error
		reply.OperationID = result.OperationID
		reply.Status = string(result.Status)
	default:
		reply.OK = true
		reply.ProfileID = result.Profile.ID
		reply.SpeakerProfileID = result.SpeakerProfileID
		reply.OperationID = result.OperationID
		reply.Status = string(result.Status)
	}

	w.respond(msg, reply, event.Header.WorkflowID)
}

// processProvisionJob stages the consent and prompt recordings on disk and
// runs the provisioning workflow against them.
func (w *NatsWorker) processProvisionJob(
	ctx context.Context,
	event *events.ProvisionRequestedEvent,
) (provision.Result, error) {
	var result provision.Result

	if len(event.PromptAudioKeys) == 0 {
		return result, ErrNoPromptAudio
	}

	for _, key := range append([]string{event.ConsentAudioKey}, event.PromptAudioKeys...) {
		if !pathutil.IsAudioFile(key) {
			return result, fmt.Errorf("%w: %s", ErrNotAudio, key)
		}
	}

	stageDir, err := os.MkdirTemp("", "pv-provision-*")
	if err != nil {
		return result, fmt.Errorf("failed to create staging directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(stageDir)
		if removeErr != nil {
			w.log.Error("Failed to remove staging directory %s: %v", stageDir, removeErr)
		}
	}()

	consentPath, err := w.store.DownloadToFile(ctx, event.ConsentAudioKey, stageDir)
	if err != nil {
		return result, fmt.Errorf("failed to stage consent audio '%s': %w", event.ConsentAudioKey, err)
	}

	promptPaths := make([]string, 0, len(event.PromptAudioKeys))

	for _, key := range event.PromptAudioKeys {
		promptPath, downloadErr := w.store.DownloadToFile(ctx, key, stageDir)
		if downloadErr != nil {
			return result, fmt.Errorf("failed to stage prompt audio '%s': %w", key, downloadErr)
		}

		promptPaths = append(promptPaths, promptPath)
	}

	cfg, err := profile.Load(w.configPath)
	if err != nil {
		return result, fmt.Errorf("failed to load profile store: %w", err)
	}

	result = w.provisioner.Run(ctx, cfg, w.configPath, provision.Request{
		ProjectID:        event.ProjectID,
		ConsentID:        event.ConsentID,
		PersonalVoiceID:  event.PersonalVoiceID,
		ConsentLocale:    event.ConsentLocale,
		VoiceTalentName:  event.VoiceTalentName,
		CompanyName:      event.CompanyName,
		ConsentAudioPath: consentPath,
		PromptAudioPaths: promptPaths,
	})

	return result, nil
}

func (w *NatsWorker) handleSynthesisMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	defer cancel()

	var event events.SynthesisRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal synthesis event: %v", err)

		return
	}

	reply := &events.SynthesisCompletedEvent{
		Header:         event.Header,
		OK:             false,
		Error:          "",
		AudioKey:       "",
		ResultID:       "",
		WordBoundaries: nil,
	}

	audioKey, result, err := w.processSynthesisJob(ctx, &event)
	switch {
	case err != nil:
		w.log.Error("Failed to process synthesis job for workflow %s: %v", event.Header.WorkflowID, err)

		reply.Error = err.Error()
	case !result.OK:
		w.log.Error("Synthesis failed for workflow %s: %s", event.Header.WorkflowID, result.Error)

		reply.Error = result.Error
	default:
		reply.OK = true
		reply.AudioKey = audioKey
		reply.ResultID = result.ResultID
		reply.WordBoundaries = wordBoundaryMarks(result.WordBoundaries)
	}

	w.respond(msg, reply, event.Header.WorkflowID)
}

// processSynthesisJob renders the text to a scratch WAV file and uploads it
// to the audio store on success.
func (w *NatsWorker) processSynthesisJob(
	ctx context.Context,
	event *events.SynthesisRequestedEvent,
) (string, synth.Result, error) {
	var result synth.Result

	cfg, err := profile.Load(w.configPath)
	if err != nil {
		return "", result, fmt.Errorf("failed to load profile store: %w", err)
	}

	stageDir, err := os.MkdirTemp(w.outputDir, "pv-synthesis-*")
	if err != nil {
		return "", result, fmt.Errorf("failed to create staging directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(stageDir)
		if removeErr != nil {
			w.log.Error("Failed to remove staging directory %s: %v", stageDir, removeErr)
		}
	}()

	audioKey := uuid.NewString() + ".wav"
	outputPath := filepath.Join(stageDir, audioKey)

	result = w.synthesizer.Synthesize(ctx, event.Text, cfg, outputPath, synth.Options{
		CaptureWordBoundaries: event.CaptureWordBoundaries,
	})
	if !result.OK {
		return "", result, nil
	}

	uploadErr := w.store.UploadFile(ctx, audioKey, outputPath)
	if uploadErr != nil {
		return "", result, fmt.Errorf("failed to upload synthesized audio '%s': %w", audioKey, uploadErr)
	}

	if info, statErr := os.Stat(outputPath); statErr == nil {
		w.log.Info("Uploaded synthesized audio %s (%s)", audioKey, pathutil.FormatFileSize(info.Size()))
	}

	return audioKey, result, nil
}

func (w *NatsWorker) respond(msg *nats.Msg, reply any, workflowID string) {
	replyData, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply event for workflow %s: %v", workflowID, err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", workflowID, err)
	}
}

func wordBoundaryMarks(boundaries []core.WordBoundary) []events.WordBoundaryMark {
	if len(boundaries) == 0 {
		return nil
	}

	marks := make([]events.WordBoundaryMark, 0, len(boundaries))
	for _, boundary := range boundaries {
		marks = append(marks, events.WordBoundaryMark{
			Text:          boundary.Text,
			AudioOffsetMS: boundary.AudioOffsetMS,
			DurationMS:    boundary.DurationMS,
		})
	}

	return marks
}
