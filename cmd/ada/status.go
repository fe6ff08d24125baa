package ada

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/igorsilveira/ada/pkg/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of the Ada relay",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	url := fmt.Sprintf("http://127.0.0.1:%d/readyz", cfg.Gateway.Port)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("status: relay is not running")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("status: relay returned %s\n", resp.Status)
		return nil
	}

	var body struct {
		Sessions int `json:"sessions"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	fmt.Printf("status: relay is healthy (%d live sessions)\n", body.Sessions)
	return nil
}
