package apikey

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// generatedWords is the number of words appended to the prefix
const generatedWords = 20

var wordList = []string{
	"hasan", "tiktok", "download", "api", "video",
	"social", "media", "content", "creator", "digital",
	"online", "stream", "share", "network", "platform",
	"mobile", "web", "cloud", "data", "tech",
}

// Generate returns a new random key: the prefix followed by 20 words
// joined with underscores.
func Generate() (string, error) {
	words := make([]string, generatedWords)
	max := big.NewInt(int64(len(wordList)))
	for i := range words {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		words[i] = wordList[n.Int64()]
	}
	return KeyPrefix + strings.Join(words, "_"), nil
}
