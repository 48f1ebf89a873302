package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/streamcrawler/src/server"
)

func main() {

	app := cli.NewApp()

	app.Name = "streamcrawler"
	app.Version = "0.2.0"
	app.Usage = "发现并校验m3u/m3u8直播源"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "配置文件",
			Value: "./config.yaml",
		},
	}

	s := server.NewServer()
	app.Commands = []cli.Command{
		{
			Name:   "crawl",
			Usage:  "从frontier（为空时从seed文件）出发抓取，并校验新发现的链接",
			Action: s.Crawl,
		},
		{
			Name:   "validate",
			Usage:  "校验链接文件中的所有url",
			Action: s.Validate,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "input,i",
					Usage: "链接文件，默认为storage.found_file",
				},
			},
		},
		{
			Name:   "reset",
			Usage:  "从visited中移除url",
			Action: s.Reset,
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "url,u",
					Usage: "要移除的url，可重复",
				},
				cli.BoolFlag{
					Name:  "all",
					Usage: "清空visited",
				},
			},
		},
	}
	app.Action = s.Crawl

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
