package inventory

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// TicketNumber génère un numéro de ticket PREFIX-AAAAMMJJ-HHMMSS-XXXXXX.
// L'unicité est garantie par la contrainte UNIQUE de ventes.numero_ticket, pas par ce générateur.
func TicketNumber(prefix string, now time.Time) string {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		// repli sur les nanosecondes si la source aléatoire est indisponible
		n := now.UnixNano()
		b = [3]byte{byte(n >> 16), byte(n >> 8), byte(n)}
	}
	if prefix == "" {
		prefix = "TK"
	}
	return prefix + "-" + now.Format("20060102-150405") + "-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
