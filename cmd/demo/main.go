// Command demo runs a scripted walkthrough of the dialogue engine, or an
// interactive chat loop with -chat.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	nocturne "github.com/taboocollar/whole-life-inc"
)

func main() {
	chat := flag.Bool("chat", false, "interactive chat loop instead of the scripted demo")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	flag.Parse()

	opts := []nocturne.Option{}
	if *seed != 0 {
		opts = append(opts, nocturne.WithRandSeed(*seed))
	}
	engine, err := nocturne.NewEngine(nocturne.DefaultConfig(), opts...)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	if *chat {
		runChat(engine)
		return
	}
	runDemo(engine)
}

func runDemo(engine *nocturne.Engine) {
	sess, err := engine.StartSession("demo-user", "casual")
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	fmt.Println(">>", engine.Greet(sess, time.Now()))

	script := []nocturne.TurnInput{
		{Text: "Hello there, who are you?"},
		{Text: "Yes, I want to continue", RequiredConsent: "explicit_required"},
		{Text: "I want to submit to you"},
		{Text: "fuck yes, absolutely", RequiredConsent: "explicit_negotiated"},
		{Text: "wait, slow down a little"},
		{Text: "This is too much, red"},
		{Text: "I'm okay now, let's try something different"},
	}
	for _, input := range script {
		fmt.Printf("\nuser: %s\n", input.Text)
		result, err := engine.ProcessTurn(sess.ID, input)
		if err != nil {
			log.Fatalf("turn: %v", err)
		}
		fmt.Printf(">> [%s/%s] %s\n", result.Mode, result.Action, result.Response)
		if !result.SessionActive {
			fmt.Println(">> session terminated")
			return
		}
	}
	engine.EndSession(sess.ID)
}

func runChat(engine *nocturne.Engine) {
	sess, err := engine.StartSession("chat-user", "casual")
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	fmt.Println(">>", engine.Greet(sess, time.Now()))
	fmt.Println(`(type "quit" to exit)`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			break
		}
		result, err := engine.ProcessTurn(sess.ID, nocturne.TurnInput{Text: line})
		if err != nil {
			log.Fatalf("turn: %v", err)
		}
		fmt.Printf(">> [%s/%s] %s\n", result.Mode, result.Action, result.Response)
		if !result.SessionActive {
			fmt.Println(">> session terminated")
			return
		}
	}
	engine.EndSession(sess.ID)
}
