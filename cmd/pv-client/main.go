// pv-client is a command line client for the personal voice workflows:
// provisioning a voice from consent and prompt recordings, synthesizing
// speech with it, and inspecting the profile store and the voice gallery
// catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/personalvoice-service/internal/core"
	"github.com/book-expert/personalvoice-service/internal/customvoice"
	"github.com/book-expert/personalvoice-service/internal/pathutil"
	"github.com/book-expert/personalvoice-service/internal/profile"
	"github.com/book-expert/personalvoice-service/internal/provision"
	"github.com/book-expert/personalvoice-service/internal/ssml"
	"github.com/book-expert/personalvoice-service/internal/synth"
	"github.com/book-expert/personalvoice-service/internal/voices"
	"github.com/spf13/cobra"
)

var errCommandFailed = errors.New("command failed")

func defaultConfigPath() string {
	return pathutil.ExpandHome(filepath.Join("~", ".voice_config.json"))
}

func newLogger() (*logger.Logger, error) {
	log, err := logger.New(os.TempDir(), "pv-client.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func loadStore(configPath string) (*profile.Config, error) {
	cfg, err := profile.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile store: %w", err)
	}

	return cfg, nil
}

func newProvisionCmd() *cobra.Command {
	var (
		configPath   string
		projectID    string
		consentID    string
		voiceID      string
		locale       string
		talentName   string
		companyName  string
		consentAudio string
		promptAudio  []string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the project, consent, and personal voice, then wait for training",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStore(configPath)
			if err != nil {
				return err
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			if locale == "" {
				locale = cfg.ConsentLocale
			}

			client := customvoice.New(cfg.APIVersion())
			provisioner := provision.New(
				client, log, customvoice.DefaultPollTimeout, customvoice.DefaultPollInterval)

			result := provisioner.Run(cmd.Context(), cfg, configPath, provision.Request{
				ProjectID:        projectID,
				ConsentID:        consentID,
				PersonalVoiceID:  voiceID,
				ConsentLocale:    locale,
				VoiceTalentName:  talentName,
				CompanyName:      companyName,
				ConsentAudioPath: consentAudio,
				PromptAudioPaths: promptAudio,
			})
			if !result.OK {
				fmt.Fprintf(cmd.ErrOrStderr(), "provisioning failed: %s\n", result.Error)

				if result.Hint != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", result.Hint)
				}

				return errCommandFailed
			}

			fmt.Fprintf(cmd.OutOrStdout(), "provisioned profile %s (speaker profile id %s)\n",
				result.Profile.ID, result.SpeakerProfileID)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the profile store")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to create or reuse")
	cmd.Flags().StringVar(&consentID, "consent", "", "Consent id to create or reuse")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Personal voice id to create")
	cmd.Flags().StringVar(&locale, "locale", "", "Consent statement locale (defaults to the store's)")
	cmd.Flags().StringVar(&talentName, "talent", "", "Voice talent name on the consent recording")
	cmd.Flags().StringVar(&companyName, "company", "", "Company name on the consent recording")
	cmd.Flags().StringVar(&consentAudio, "consent-audio", "", "Path to the consent recording")
	cmd.Flags().StringSliceVar(&promptAudio, "prompt", nil, "Path to a prompt recording (repeatable)")

	return cmd
}

func newSynthesizeCmd() *cobra.Command {
	var (
		configPath     string
		text           string
		output         string
		wordBoundaries bool
		timeoutSeconds int
	)

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize speech with the selected speaker profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStore(configPath)
			if err != nil {
				return err
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			ctx, cancel := context.WithTimeout(
				cmd.Context(), time.Duration(timeoutSeconds)*time.Second)
			defer cancel()

			synthesizer := synth.New(synth.NewAzureEngine(), log)

			result := synthesizer.Synthesize(ctx, text, cfg, output, synth.Options{
				CaptureWordBoundaries: wordBoundaries,
			})
			if !result.OK {
				fmt.Fprintf(cmd.ErrOrStderr(), "synthesis failed: %s\n", result.Error)

				if result.CancelDetails != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "details: %s\n", result.CancelDetails)
				}

				return errCommandFailed
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", result.OutputPath)

			for _, boundary := range result.WordBoundaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%8.0fms %8.0fms  %s\n",
					boundary.AudioOffsetMS, boundary.DurationMS, boundary.Text)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the profile store")
	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize")
	cmd.Flags().StringVar(&output, "output", "output.wav", "Output WAV path")
	cmd.Flags().BoolVar(&wordBoundaries, "word-boundaries", false, "Print word timing events")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 120, "Synthesis timeout in seconds")

	return cmd
}

func newVoicesCmd() *cobra.Command {
	var (
		voicesPath string
		query      string
		locales    []string
		genders    []string
		ageGroups  []string
	)

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voice gallery catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := voices.Load(voicesPath)
			if err != nil {
				return fmt.Errorf("failed to load voice catalog: %w", err)
			}

			filter := voices.Filter{
				Query:     query,
				Locales:   locales,
				Genders:   genders,
				AgeGroups: ageGroups,
			}

			for _, voice := range filter.Apply(catalog) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-10s %-8s %s\n",
					voice.Name, voice.Locale, voice.Gender, voice.Description)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&voicesPath, "file", "voices.json", "Path to the voice catalog JSON")
	cmd.Flags().StringVar(&query, "query", "", "Match against voice name and description")
	cmd.Flags().StringSliceVar(&locales, "locale", nil, "Restrict to a locale (repeatable)")
	cmd.Flags().StringSliceVar(&genders, "gender", nil, "Restrict to a gender (repeatable)")
	cmd.Flags().StringSliceVar(&ageGroups, "age-group", nil, "Restrict to an age group (repeatable)")

	return cmd
}

func newSampleCmd() *cobra.Command {
	var (
		configPath     string
		voiceName      string
		locale         string
		text           string
		output         string
		pitch          float64
		rate           float64
		volume         float64
		timeoutSeconds int
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Synthesize a sample of a gallery voice with prosody adjustments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStore(configPath)
			if err != nil {
				return err
			}

			if strings.TrimSpace(cfg.SpeechKey) == "" || strings.TrimSpace(cfg.SpeechRegion) == "" {
				return fmt.Errorf("%w: speech key and region are required", errCommandFailed)
			}

			ctx, cancel := context.WithTimeout(
				cmd.Context(), time.Duration(timeoutSeconds)*time.Second)
			defer cancel()

			ssmlDoc := ssml.Prosody(text, voiceName, locale, pitch, rate, volume)

			engine := synth.NewAzureEngine()

			engineResult, err := engine.SpeakSSMLToFile(
				ctx, cfg.SpeechKey, cfg.SpeechRegion, ssmlDoc, output, false)
			if err != nil {
				return fmt.Errorf("synthesis failed: %w", err)
			}

			if engineResult.Outcome != core.EngineCompleted {
				fmt.Fprintf(cmd.ErrOrStderr(), "synthesis did not complete: %s %s\n",
					engineResult.CancelReason, engineResult.CancelDetails)

				return errCommandFailed
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the profile store")
	cmd.Flags().StringVar(&voiceName, "voice", "en-US-AvaNeural", "Gallery voice name")
	cmd.Flags().StringVar(&locale, "locale", "en-US", "Voice locale")
	cmd.Flags().StringVar(&text, "text", "Hello! This is a voice sample.", "Sample text")
	cmd.Flags().StringVar(&output, "output", "sample.wav", "Output WAV path")
	cmd.Flags().Float64Var(&pitch, "pitch", 1.0, "Pitch multiplier centered on 1.0")
	cmd.Flags().Float64Var(&rate, "rate", 1.0, "Rate multiplier centered on 1.0")
	cmd.Flags().Float64Var(&volume, "volume", 1.0, "Volume multiplier centered on 1.0")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 60, "Synthesis timeout in seconds")

	return cmd
}

func newProfilesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the stored speaker profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStore(configPath)
			if err != nil {
				return err
			}

			for _, prof := range cfg.Profiles {
				marker := " "
				if prof.ID == cfg.SelectedProfileID {
					marker = "*"
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %-44s %-24s %s\n",
					marker, prof.ID, prof.Name, prof.SpeakerProfileID)
			}

			return nil
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select <profile-id>",
		Short: "Select the profile used for synthesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStore(configPath)
			if err != nil {
				return err
			}

			profileID := strings.TrimSpace(args[0])

			found := false

			for _, prof := range cfg.Profiles {
				if prof.ID == profileID {
					found = true

					break
				}
			}

			if !found {
				return fmt.Errorf("%w: unknown profile id %s", errCommandFailed, profileID)
			}

			cfg.SelectedProfileID = profileID

			err = profile.Save(cfg, configPath)
			if err != nil {
				return fmt.Errorf("failed to save profile store: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "selected %s\n", profileID)

			return nil
		},
	}

	cmd.AddCommand(selectCmd)
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the profile store")

	return cmd
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pv-client",
		Short:        "Client for the personal voice provisioning and synthesis workflows",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newProvisionCmd())
	rootCmd.AddCommand(newSynthesizeCmd())
	rootCmd.AddCommand(newVoicesCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newProfilesCmd())

	return rootCmd
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
