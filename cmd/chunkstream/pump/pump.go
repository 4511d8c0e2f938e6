package pump

import (
	"os"

	cs "github.com/openziti/chunkstream"
	"github.com/openziti/chunkstream/cmd/chunkstream/chunkstream"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	pumpCmd.Flags().IntVarP(&readSz, "read", "r", 128*1024, "Maximum bytes per packet")
	chunkstream.RootCmd.AddCommand(pumpCmd)
}

var pumpCmd = &cobra.Command{
	Use:   "pump <input> <output>",
	Short: "Stream a file through a pooled chunk pipeline ('-' for stdin/stdout)",
	Args:  cobra.ExactArgs(2),
	Run:   pump,
}

var readSz int

func pump(_ *cobra.Command, args []string) {
	p, err := chunkstream.GetProfile()
	if err != nil {
		logrus.Fatalf("profile (%v)", err)
	}

	input := os.Stdin
	if args[0] != "-" {
		input, err = os.Open(args[0])
		if err != nil {
			logrus.Fatalf("open input (%v)", err)
		}
		defer func() { _ = input.Close() }()
	}
	output := os.Stdout
	if args[1] != "-" {
		output, err = os.Create(args[1])
		if err != nil {
			logrus.Fatalf("create output (%v)", err)
		}
		defer func() { _ = output.Close() }()
	}

	var ii cs.InstrumentInstance
	if p.Instrument() != nil {
		ii = p.Instrument().NewInstance("pump")
		defer ii.Shutdown()
	}
	pool := cs.NewReusePool("pump", p, ii)
	defer pool.Dispose()

	total := 0
	for {
		pkt, err := cs.ReadPacket(input, pool, 0, readSz, p)
		if err != nil {
			logrus.Fatalf("read (%v)", err)
		}
		if pkt.IsEmpty() {
			if err := pkt.Release(); err != nil {
				logrus.Fatalf("release (%v)", err)
			}
			break
		}
		total += pkt.Size()

		for pkt != nil {
			pkt, err = cs.WritePacket(output, pkt)
			if err != nil {
				logrus.Fatalf("write (%v)", err)
			}
		}
	}

	stats := pool.Stats()
	logrus.Infof("pumped [%d] bytes, allocated [%d], reused [%d] chunks", total, stats.Allocated, stats.Reused)
	if stats.Live() != 0 {
		logrus.Warnf("[%d] chunks leaked", stats.Live())
	}
}
