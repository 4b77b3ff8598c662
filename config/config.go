package config

import (
	"log"

	"github.com/joho/godotenv"
)

// 本地开发用 .env，生产环境直接注入环境变量
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process env")
	}
}
