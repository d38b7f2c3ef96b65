package cmd

import (
	"encoding/json"
	"fmt"

	"neuroscreen/internal/config"
	logger "neuroscreen/internal/logging"
	"neuroscreen/internal/voice"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Send one voice-feature vector to the classifier",
	RunE:  runPredict,
}

func init() {
	for _, name := range voice.FeatureNames {
		predictCmd.Flags().Float64(name, 0, "Voice feature "+name)
		predictCmd.MarkFlagRequired(name)
	}
	predictCmd.Flags().String("url", "", "Classifier URL (overrides classifier.url)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}
	store, _, err := config.Load(root)
	if err != nil {
		return err
	}
	cfg := store.Get().Classifier
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		cfg.URL = u
	}

	values := make(map[string]float64, len(voice.FeatureNames))
	for _, name := range voice.FeatureNames {
		values[name], _ = cmd.Flags().GetFloat64(name)
	}
	features := voice.Features{
		Fo:      values["fo"],
		Fhi:     values["fhi"],
		Flo:     values["flo"],
		Jitter:  values["jitter"],
		Shimmer: values["shimmer"],
		HNR:     values["hnr"],
		DFA:     values["dfa"],
	}

	log := logger.Console(zapcore.WarnLevel)
	defer log.Sync()

	pred, err := voice.NewClient(cfg.URL, cfg.Timeout, log).Predict(cmd.Context(), features)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"prediction":     pred.Prediction,
		"label":          pred.Label(),
		"probability":    pred.Probability,
		"feature_status": pred.FeatureStatus,
	})
}
