package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxguard/voxguard/pkg/audio/pcm"
	"github.com/voxguard/voxguard/pkg/enroll"
	"github.com/voxguard/voxguard/pkg/voiceprint"
)

var (
	enrollUser string
	enrollRate int
)

var enrollCmd = &cobra.Command{
	Use:   "enroll --user ID <file.pcm>",
	Short: "Enroll a speaker from a raw PCM16 file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if enrollUser == "" {
			return fmt.Errorf("--user is required")
		}
		store, err := newEnrollStore()
		if err != nil {
			return err
		}
		samples, err := loadPCM(args[0])
		if err != nil {
			return err
		}
		if !store.Enroll(cmd.Context(), enrollUser, samples, enrollRate) {
			return fmt.Errorf("enrollment failed for %s", enrollUser)
		}
		fmt.Printf("enrolled %s from %s\n", enrollUser, args[0])
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify --user ID <file.pcm>",
	Short: "Verify a raw PCM16 file against an enrolled speaker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if enrollUser == "" {
			return fmt.Errorf("--user is required")
		}
		store, err := newEnrollStore()
		if err != nil {
			return err
		}
		samples, err := loadPCM(args[0])
		if err != nil {
			return err
		}
		res := store.Verify(cmd.Context(), enrollUser, samples, enrollRate)
		verdict := "REJECTED"
		if res.Verified {
			verdict = "VERIFIED"
		}
		fmt.Printf("%s  similarity=%.4f threshold=%.2f\n", verdict, res.Similarity, res.Threshold)
		if res.Message != "" {
			fmt.Println(res.Message)
		}
		if !res.Verified {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{enrollCmd, verifyCmd} {
		cmd.Flags().StringVar(&enrollUser, "user", "", "user id")
		cmd.Flags().IntVar(&enrollRate, "rate", 16000, "sample rate of the input file in Hz")
		rootCmd.AddCommand(cmd)
	}
}

func newEnrollStore() (*enroll.Store, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	files, err := newFileStore(cfg)
	if err != nil {
		return nil, err
	}
	return enroll.New(files, voiceprint.NewCepstral(),
		enroll.Config{Threshold: cfg.VerifyThreshold}), nil
}

// loadPCM reads a raw 16-bit little-endian PCM file into float samples.
func loadPCM(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	samples, err := pcm.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
