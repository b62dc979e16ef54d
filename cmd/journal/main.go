// journal 讀取稽核日誌並輸出每個帳戶的存提款統計。
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/JoeShih716/go-mini-ledger/pkg/journal"
	"github.com/JoeShih716/go-mini-ledger/pkg/logging"
)

func main() {
	path := flag.String("path", "journal.log", "journal file to read")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info"})
	summarizer := NewSummarizer()
	if err := journal.ReadFile(*path, summarizer.Add); err != nil {
		logger.Fatal("failed to read journal", "path", *path, "error", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tRECORDS\tDEPOSITED\tWITHDRAWN\tLAST_SEQ\tBALANCE\tBREAKS")
	for _, sum := range summarizer.Accounts() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%d\n",
			sum.AccountID,
			sum.Records,
			sum.Deposited.StringFixed(4),
			sum.Withdrawn.StringFixed(4),
			sum.LastSequence,
			sum.LastBalance.StringFixed(4),
			sum.Breaks,
		)
	}
	_ = w.Flush()
}
