package main

import (
	"flag"
	"log"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/faiface/mainthread"

	"github.com/voxellab/cubeland/internal/config"
)

var (
	configPath = flag.String("c", "config.yml", "config file")
	pprofPort  = flag.String("pprof", "", "http pprof port")
)

func run() {
	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	game, err := NewGame(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Shutdown()

	tick := time.Tick(time.Second / 60)
	for !game.ShouldClose() {
		<-tick
		game.Update()
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
}
