package ingest

import (
	"fmt"

	"github.com/nfrund/chaosarena/internal/match"
)

func joinedText(name string) string {
	return fmt.Sprintf("Viewer %s joined the room!", name)
}

func summonedText(viewer, item string) string {
	return fmt.Sprintf("%s summoned %s!", viewer, item)
}

func giftedText(viewer, item string) string {
	return fmt.Sprintf("%s sent the Streamer %s!", viewer, item)
}

func betText(viewer string, amount int, side match.BetSide) string {
	outcome := "WIN"
	if side == match.BetLose {
		outcome = "LOSE"
	}
	return fmt.Sprintf("%s bet $%d on %s!", viewer, amount, outcome)
}

func payoutText(viewer string) string {
	return fmt.Sprintf("%s won the bet as the Streamer fell!", viewer)
}

const gameOverText = "Streamer has fallen! Game Over!"
