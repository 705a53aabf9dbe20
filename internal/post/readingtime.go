package post

import (
	"strings"

	"golang.org/x/net/html"
)

// wordsPerMinute は読了時間の計算に用いる1分あたりの語数。
const wordsPerMinute = 200

// WordCount はHTMLコンテンツのテキスト部分の語数を数える。
// タグや属性は語数に含めない。
func WordCount(htmlContent string) int {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlContent))
	count := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return count
		case html.TextToken:
			count += len(strings.Fields(tokenizer.Token().Data))
		}
	}
}

// ReadingTime は語数から読了時間（分）を算出する。
// 200語/分で切り上げ。0語の場合は0を返す。
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + wordsPerMinute - 1) / wordsPerMinute
}
