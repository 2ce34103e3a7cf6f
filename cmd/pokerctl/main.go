// Command pokerctl is a terminal client for pokersrv: it dials the
// Engine gRPC service and either prints a snapshot of a hand as JSON
// or drives the bubbletea table view for interactive play.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vctt94/holdemcore/pkg/rpcserver"
	"github.com/vctt94/holdemcore/pkg/ui"
)

var (
	addr     = flag.String("addr", "127.0.0.1:0", "Address of the pokersrv gRPC listener")
	userID   = flag.String("id", "", "Player user ID")
	roomID   = flag.String("room", "", "Room ID")
	handID   = flag.String("hand", "", "Hand ID to view and act on (no hand is loaded when empty)")
	jsonOnly = flag.Bool("json", false, "Print a single HandView snapshot as JSON and exit, instead of the interactive view")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -addr host:port -id userID -room roomID [-hand handID] [-json]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *userID == "" || *roomID == "" {
		flag.Usage()
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	client := rpcserver.NewEngineClient(conn)
	ctx := context.Background()

	if *jsonOnly {
		view, err := client.GetHand(ctx, &rpcserver.GetHandRequest{HandID: *handID, RequestingUserID: *userID})
		if err != nil {
			fmt.Fprintf(os.Stderr, "GetHand: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	model := ui.NewTableModel(ctx, client, *roomID, *handID, *userID)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ui error: %v\n", err)
		os.Exit(1)
	}
}
