package uart

import (
	"fmt"
	"strconv"

	"github.com/sweeney/button-sensor/internal/cli"
)

// Commands returns the console commands that drive tx directly:
//
//	send <type> <value>
//	send array <type> <value>...
//	send hexdump <byte>...
//	txstat [reset]
func Commands(tx *Transmitter) []*cli.Command {
	return []*cli.Command{
		{
			Name: "send",
			Help: "Transmit a value: send <type>|array <type>|hexdump <values>",
			Run: func(p *cli.Printer, args []string) error {
				return runSend(tx, args)
			},
		},
		{
			Name: "txstat",
			Help: "Show transmit counters: txstat [reset]",
			Run: func(p *cli.Printer, args []string) error {
				switch {
				case len(args) == 1 && args[0] == "reset":
					tx.ResetStats()
					return p.Printf("stats reset\n")
				case len(args) != 0:
					return fmt.Errorf("usage: txstat [reset]")
				}
				s := tx.Status()
				last := "never"
				if !s.LastTx.IsZero() {
					last = s.LastTx.Format("15:04:05")
				}
				return p.Printf("bytes=%d count=%d errors=%d last=%s\n",
					s.BytesSent, s.TxCount, s.TxErrors, last)
			},
		},
	}
}

func runSend(tx *Transmitter, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: send <type> <value>")
	}

	switch args[0] {
	case "hexdump":
		data := make([]byte, 0, len(args)-1)
		for _, a := range args[1:] {
			b, err := strconv.ParseUint(a, 16, 8)
			if err != nil {
				return fmt.Errorf("invalid byte %q", a)
			}
			data = append(data, byte(b))
		}
		return tx.SendHex(data)

	case "array":
		if len(args) < 3 {
			return fmt.Errorf("usage: send array <type> <value>...")
		}
		typ, err := ParseDataType(args[1])
		if err != nil {
			return err
		}
		values := make([]interface{}, 0, len(args)-2)
		for _, a := range args[2:] {
			v, err := ParseValue(typ, a)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		return tx.SendArray(typ, values)
	}

	if len(args) != 2 {
		return fmt.Errorf("usage: send <type> <value>")
	}
	typ, err := ParseDataType(args[0])
	if err != nil {
		return err
	}
	v, err := ParseValue(typ, args[1])
	if err != nil {
		return err
	}
	return tx.SendData(typ, v)
}
