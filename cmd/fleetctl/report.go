package main

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fleetops/fleet-admin-client/internal/analysis"
	"github.com/fleetops/fleet-admin-client/pkg/client"
)

var (
	reportTags        []string
	reportEnabledOnly bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download task summaries for the fleet and report cleaning redundancy",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringArrayVar(&reportTags, "tag", nil, "device tag filter as key=value (repeatable)")
	reportCmd.Flags().BoolVar(&reportEnabledOnly, "enabled-only", false, "only include enabled devices")
}

// parseTagFilter converts repeated key=value flags into the tag filter shape
// the query endpoint expects.
func parseTagFilter(pairs []string) (map[string][]string, error) {
	tags := map[string][]string{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid tag filter %q, expected key=value", pair)
		}
		tags[key] = append(tags[key], value)
	}
	return tags, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tags, err := parseTagFilter(reportTags)
	if err != nil {
		return err
	}

	clientCfg := cfg.ClientConfig()

	if cfg.Cache.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, device-query cache disabled")
		} else {
			clientCfg.Redis = redisClient
			defer redisClient.Close()
		}
	}

	fleet, err := client.New(clientCfg)
	if err != nil {
		return err
	}

	devices, err := fleet.QueryDevices(ctx, tags, reportEnabledOnly)
	if err != nil {
		return fmt.Errorf("query devices: %w", err)
	}
	log.Info().Int("devices", len(devices)).Msg("Queried fleet devices")

	deviceIDs := make([]string, 0, len(devices))
	for _, d := range devices {
		deviceIDs = append(deviceIDs, d.ID)
	}

	summaries, err := fleet.FetchTaskSummariesForDevices(ctx, deviceIDs)
	if err != nil {
		return fmt.Errorf("fetch task summaries: %w", err)
	}

	result := analysis.Redundancy(summaries)

	fmt.Printf("Devices:            %d\n", len(devices))
	fmt.Printf("Task reports:       %d\n", result.Total)
	fmt.Printf("Redundant reports:  %d\n", result.Redundant)
	fmt.Printf("Redundancy:         %.2f%%\n", result.Percentage())

	return nil
}
