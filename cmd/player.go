package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"playout-engine/internal/config"
	"playout-engine/internal/nonce"
	"playout-engine/internal/provisioning"
	"playout-engine/internal/utils"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Manage player devices",
	Long:  `Create, pair, list and deactivate the player devices bound to screens.`,
}

func provisioningService() *provisioning.Service {
	return provisioning.NewService(provider, utils.NewTokenHasher(cfg.Secret))
}

var playerCreateCmd = &cobra.Command{
	Use:   "create <screen_id>",
	Short: "Create player credentials for a screen",
	Long: `Create a new player for the screen and print its credentials.
Any active player of the screen is deactivated. The token is shown only once.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		creds, err := provisioningService().CreatePlayer(ctx, args[0])
		if err != nil {
			fail("Failed to create player", err, "screen_id", args[0])
		}

		fmt.Printf("Player ID: %s\n", creds.PlayerID)
		fmt.Printf("Screen ID: %s\n", creds.ScreenID)
		fmt.Printf("Token:     %s\n", creds.Token)
	},
}

// pairingURL appends the token to the registration endpoint of baseURL.
func pairingURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/v1/player/register?pairing_token=" + url.QueryEscape(token)
}

var playerPairCmd = &cobra.Command{
	Use:   "pair <screen_id>",
	Short: "Issue a single-use pairing token for a screen",
	Long: `Issue a pairing token and show it as a QR code in the terminal.
Scanning devices register by POSTing the token to /api/v1/player/register.
Tokens issued here are checked by the server, so nonce_store must be sql or redis.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		serverURL, _ := cmd.Flags().GetString("url")
		pngFile, _ := cmd.Flags().GetString("png")

		if nonce.Backend(cfg.NonceStore) == nonce.BackendMemory {
			fmt.Fprintln(os.Stderr, "nonce_store is memory; the server would not know this token. Use sql or redis.")
			os.Exit(1)
		}
		if err := nonce.Init(cfg, provider); err != nil {
			fail("Failed to initialize nonce store", err)
		}
		defer nonce.Default.Close()

		pairing, err := provisioningService().IssuePairingToken(ctx, args[0])
		if err != nil {
			fail("Failed to issue pairing token", err, "screen_id", args[0])
		}

		content := pairing.Token
		if serverURL != "" {
			content = pairingURL(serverURL, pairing.Token)
		}

		qr, err := qrcode.New(content, qrcode.Medium)
		if err != nil {
			fail("Failed to generate QR code", err)
		}
		fmt.Println(qr.ToSmallString(false))

		if pngFile != "" {
			if err := qr.WriteFile(config.QR_IMAGE_SIZE, pngFile); err != nil {
				fail("Failed to write QR image", err, "file", pngFile)
			}
			fmt.Printf("QR image written to %s\n", pngFile)
		}

		fmt.Printf("Screen:  %s\n", pairing.ScreenID)
		fmt.Printf("Expires: %s\n", pairing.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("Pairing: %s\n", content)
	},
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List players",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		players, err := provisioningService().List(ctx)
		if err != nil {
			fail("Failed to list players", err)
		}

		if len(players) == 0 {
			fmt.Println("No players found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PLAYER ID\tSCREEN ID\tACTIVE\tCONFIG HASH\tLAST SEEN\tCREATED AT")
		for _, p := range players {
			hash, lastSeen := "-", "-"
			if p.ConfigHash != nil {
				hash = *p.ConfigHash
			}
			if p.LastSeenAt != nil {
				lastSeen = p.LastSeenAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
				p.ID,
				p.ScreenID,
				p.IsActive,
				hash,
				lastSeen,
				p.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
	},
}

var playerDeactivateCmd = &cobra.Command{
	Use:   "deactivate <player_id>",
	Short: "Disconnect a player",
	Long:  `Deactivate a player. Its credentials stop working and requests are answered with PLAYER_DISCONNECTED.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := provisioningService().Deactivate(ctx, args[0]); err != nil {
			fail("Failed to deactivate player", err, "player_id", args[0])
		}
		fmt.Printf("Player %s deactivated by %s\n", args[0], getActiveUser())
	},
}

func init() {
	playerPairCmd.Flags().StringP("url", "u", "", "Server base URL to embed in the QR code, e.g. https://playout.example.com")
	playerPairCmd.Flags().String("png", "", "Also write the QR code as a PNG image to this file")

	playerCmd.AddCommand(playerCreateCmd)
	playerCmd.AddCommand(playerPairCmd)
	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerDeactivateCmd)
	rootCmd.AddCommand(playerCmd)
}
