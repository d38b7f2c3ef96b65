package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/screening"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one set of screening answers and print the result",
	Example: `  neuroscreen score --q1 "$(date +%d/%m/%Y)" --q2 "apple table penny" \
    --q3 "20,19,18,17,16" --q4 DLROW --q5 "dog cat horse"`,
	RunE: runScore,
}

func init() {
	for _, id := range screening.ItemIDs {
		scoreCmd.Flags().String(string(id), "", id.Title())
	}
	scoreCmd.Flags().String("date", "", "Evaluation date as YYYY-MM-DD (defaults to today)")
	scoreCmd.Flags().String("battery", "", "Battery file (defaults to the built-in battery)")
}

func runScore(cmd *cobra.Command, args []string) error {
	now := time.Now
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		on, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		now = func() time.Time { return on }
	}

	battery := models.DefaultBattery()
	if path, _ := cmd.Flags().GetString("battery"); path != "" {
		var err error
		if battery, err = models.LoadBattery(path); err != nil {
			return err
		}
	}

	answers := make(map[screening.ItemID]string, screening.ItemCount)
	for _, id := range screening.ItemIDs {
		answers[id], _ = cmd.Flags().GetString(string(id))
	}

	res, err := screening.NewSession(battery.Rules(), now).Submit(answers)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
