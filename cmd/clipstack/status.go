package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstack/internal/ipc"
	"go.klb.dev/clipstack/internal/message"
	"go.klb.dev/clipstack/internal/wire"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state",
		Long: `Displays the running daemon's state: clipboard backend, history depth,
whether the current clipboard content is under management, and the active
hotkey bindings.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")

	return cmd
}

type statusOutput struct {
	Running bool                `json:"running"`
	Status  *message.StatusInfo `json:"status,omitempty"`
}

func runStatus(v *viper.Viper) error {
	jsonOut := v.GetBool("json")

	if !ipc.IsRunning() {
		if jsonOut {
			printJSON(statusOutput{Running: false})
			return nil
		}
		fmt.Printf("%s (socket %s)\n", color.RedString("clipstack is not running"), ipc.SocketPath())
		return nil
	}

	st, err := fetchStatus()
	if err != nil {
		return err
	}

	if jsonOut {
		printJSON(statusOutput{Running: true, Status: st})
		return nil
	}
	printStatus(st)
	return nil
}

func fetchStatus() (*message.StatusInfo, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect control socket: %w", err)
	}
	defer conn.Close()

	wc := wire.New(conn)
	if err := wc.WriteMsg(message.NewStatusRequest()); err != nil {
		return nil, fmt.Errorf("send status request: %w", err)
	}

	wc.SetReadDeadline(5 * time.Second)
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, errors.New(resp.Error)
	}
	if resp.Type != message.TypeStatusResponse || resp.Status == nil {
		return nil, fmt.Errorf("unexpected response type %q", resp.Type)
	}
	return resp.Status, nil
}

func printJSON(out statusOutput) {
	enc, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(enc))
}

func printStatus(st *message.StatusInfo) {
	fmt.Printf("%s  pid %d\n\n", color.GreenString("clipstack is running"), st.PID)

	limit := "unbounded"
	if st.Limit > 0 {
		limit = fmt.Sprintf("%d", st.Limit)
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", st.Backend)
	fmt.Fprintf(w, "History:\t%d / %s entries\n", st.Depth, limit)
	fmt.Fprintf(w, "Managing clipboard:\t%s\n", yesNo(st.Managing))
	fmt.Fprintf(w, "Duplicate suppression:\t%s\n", yesNo(st.Dedup))
	fmt.Fprintf(w, "Tray icon:\t%s\n", yesNo(st.Tray))
	_ = w.Flush()

	if len(st.Bindings) == 0 {
		fmt.Println("\nNo hotkeys bound.")
		return
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "COMMAND\tHOTKEY\n")
	fmt.Fprintf(tw, "-------\t------\n")
	for _, name := range []string{"pop", "swap", "clear"} {
		if hk, ok := st.Bindings[name]; ok {
			fmt.Fprintf(tw, "%s\t%s\n", name, hk)
		}
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return "no"
}
