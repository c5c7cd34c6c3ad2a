package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"announce-qa-be/internal/bootstrap"
	"announce-qa-be/internal/config"
	"announce-qa-be/internal/dto"
	"announce-qa-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	cyan.Println("공지사항 Q&A 콘솔")
	fmt.Println("질문을 입력하세요. /clear 로 대화를 초기화하고 /exit 로 종료합니다.")
	fmt.Println()

	conversationId := uuid.NewString()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		green.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit":
			return
		case "/clear":
			if err := container.ChatService.ClearHistory(context.Background(), conversationId); err != nil {
				red.Printf("failed to clear history: %v\n", err)
				continue
			}
			conversationId = uuid.NewString()
			yellow.Println("대화가 초기화되었습니다.")
			continue
		}

		res, err := container.ChatService.Ask(context.Background(), &dto.AskRequest{
			Question:       line,
			ConversationId: conversationId,
		})
		if err != nil {
			red.Printf("error: %v\n", err)
			continue
		}

		fmt.Println()
		if res.Blocked {
			yellow.Println(res.Answer)
		} else {
			fmt.Println(res.Answer)
			if len(res.Sources) > 0 {
				fmt.Println()
				cyan.Println("출처:")
				for _, src := range res.Sources {
					fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
				}
			}
			if res.Attempts > 0 {
				yellow.Printf("(재시도 %d회)\n", res.Attempts)
			}
		}
		fmt.Println()
	}
}
