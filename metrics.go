package main

import (
	"fmt"
	"os"

	"github.com/cs-au-dk/tracesmin/explore"

	log "github.com/sirupsen/logrus"
)

func gatherMetrics(report *explore.Report) {
	fmt.Println("================ Results =====================")
	if err := report.WriteReport(os.Stdout, opts.ShowWitness()); err != nil {
		log.Fatalln(err)
	}
	fmt.Println("================ Results =====================")
}
