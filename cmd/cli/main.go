package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("bookhub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 60 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "books":
		handleBooks(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "reader":
		handleReader(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "events":
		handleEvents(*baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		passphrase := fs.String("passphrase", "", "library passphrase")
		device := fs.String("device", "cli", "device name")
		_ = fs.Parse(args)

		if *passphrase == "" {
			log.Fatal("passphrase is required")
		}

		payload := map[string]string{"passphrase": *passphrase, "device": *device}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: bookhub auth <login|logout>")
	}
}

func handleBooks(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := tokenOrEmpty(tokenPath)
	switch sub {
	case "import":
		fs := flag.NewFlagSet("books import", flag.ExitOnError)
		_ = fs.Parse(args)
		paths := fs.Args()
		if len(paths) == 0 {
			log.Fatal("at least one file is required")
		}

		var resp map[string]any
		if err := doMultipart(ctx, client, baseURL+"/books", token, paths, &resp); err != nil {
			log.Fatalf("import failed: %v", err)
		}
		printJSON(resp)
	case "list":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/books", token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("books show", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("book id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, fmt.Sprintf("%s/books/%d", baseURL, *id), token, nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "download":
		fs := flag.NewFlagSet("books download", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		out := fs.String("out", "", "output path")
		_ = fs.Parse(args)
		if *id <= 0 || *out == "" {
			log.Fatal("book id and output path are required")
		}

		if err := download(ctx, client, fmt.Sprintf("%s/books/%d/content", baseURL, *id), token, *out); err != nil {
			log.Fatalf("download failed: %v", err)
		}
		log.Printf("saved to %s", *out)
	case "delete":
		fs := flag.NewFlagSet("books delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("book id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, fmt.Sprintf("%s/books/%d", baseURL, *id), token, nil, &resp); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: bookhub books <import|list|show|download|delete>")
	}
}

func handleReader(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := tokenOrEmpty(tokenPath)
	switch sub {
	case "open":
		fs := flag.NewFlagSet("reader open", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("book id is required")
		}
		readerPost(ctx, client, baseURL, token, "/reader/open", map[string]any{"id": *id})
	case "close":
		readerPost(ctx, client, baseURL, token, "/reader/close", nil)
	case "state":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/reader", token, nil, &resp); err != nil {
			log.Fatalf("state failed: %v", err)
		}
		printJSON(resp)
	case "next":
		readerPost(ctx, client, baseURL, token, "/reader/next", nil)
	case "prev":
		readerPost(ctx, client, baseURL, token, "/reader/prev", nil)
	case "goto":
		fs := flag.NewFlagSet("reader goto", flag.ExitOnError)
		locator := fs.String("locator", "", "pagination locator")
		_ = fs.Parse(args)
		if *locator == "" {
			log.Fatal("locator is required")
		}
		readerPost(ctx, client, baseURL, token, "/reader/goto", map[string]any{"locator": *locator})
	case "swipe":
		fs := flag.NewFlagSet("reader swipe", flag.ExitOnError)
		delta := fs.Float64("delta", 0, "horizontal travel in px (negative = forward)")
		_ = fs.Parse(args)
		readerPost(ctx, client, baseURL, token, "/reader/swipe", map[string]any{"delta_x": *delta})
	case "scroll":
		fs := flag.NewFlagSet("reader scroll", flag.ExitOnError)
		offset := fs.Int64("offset", 0, "scroll offset")
		_ = fs.Parse(args)
		readerPost(ctx, client, baseURL, token, "/reader/scroll", map[string]any{"offset": *offset})
	case "search":
		fs := flag.NewFlagSet("reader search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		_ = fs.Parse(args)
		if *query == "" {
			log.Fatal("query is required")
		}

		u, err := url.Parse(baseURL + "/reader/search")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		qv.Set("q", *query)
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	case "text":
		text, err := doText(ctx, client, baseURL+"/reader/text", token)
		if err != nil {
			log.Fatalf("text failed: %v", err)
		}
		fmt.Println(text)
	case "page":
		fs := flag.NewFlagSet("reader page", flag.ExitOnError)
		num := fs.Int("num", 1, "page number")
		_ = fs.Parse(args)

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, fmt.Sprintf("%s/reader/pages/%d", baseURL, *num), token, nil, &resp); err != nil {
			log.Fatalf("page failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: bookhub reader <open|close|state|next|prev|goto|swipe|scroll|search|text|page>")
	}
}

func readerPost(ctx context.Context, client *http.Client, baseURL, token, path string, payload any) {
	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodPost, baseURL+path, token, payload, &resp); err != nil {
		log.Fatalf("%s failed: %v", path, err)
	}
	printJSON(resp)
}

func handleEvents(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("events listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP event feed address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runEventsTCP(*addr, *pretty); err != nil {
				log.Printf("[events] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "subscribe":
		fs := flag.NewFlagSet("events subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: bookhub events <listen|subscribe>")
	}
}

func runEventsTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[events] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[events] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func doMultipart(ctx context.Context, client *http.Client, endpoint, token string, paths []string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, filepath.Base(path)))
		hdr.Set("Content-Type", contentTypeFor(path))
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}
		if _, err := part.Write(data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: %s", strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		return "application/epub+zip"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func download(ctx context.Context, client *http.Client, endpoint, token, out string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download failed: %s", strings.TrimSpace(string(data)))
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func doText(ctx context.Context, client *http.Client, endpoint, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("request failed: %s", strings.TrimSpace(string(data)))
	}
	return string(data), nil
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.bookhub-token.json"
	}
	return filepath.Join(home, ".bookhub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func tokenOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return ""
	}
	return strings.TrimSpace(td.Token)
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("bookhub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  books import|list|show|download|delete")
	fmt.Println("  reader open|close|state|next|prev|goto|swipe|scroll|search|text|page")
	fmt.Println("  events listen|subscribe")
}
