// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ImageURLGuardService は画像URL検証機能のインターフェースを定義する。
// ユーザーが登録する画像URLは信頼できない入力であり、
// 内部ネットワークを指すURLを保存・配信しないよう事前に検証する。
type ImageURLGuardService interface {
	// ValidateURL はURLの形式と安全性を検証する。
	// http/https以外のスキーム、空ホスト、プライベートIP・ループバック等を
	// 指すURLはエラーを返す。
	ValidateURL(rawURL string) error

	// NewSafeClient は到達性確認（プローブ）用のHTTPクライアントを生成する。
	// safeurlライブラリにより、DNS解決後のIPアドレスもDialerレベルで検証され、
	// DNS再バインディング攻撃によるプライベートIPへのアクセスも遮断される。
	NewSafeClient(timeout time.Duration) *http.Client
}

// allowedSchemes は画像URLで許可されるスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks は検証でブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースする。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// imageURLGuard はImageURLGuardServiceの実装。
type imageURLGuard struct{}

// NewImageURLGuard はImageURLGuardServiceの新しいインスタンスを生成する。
func NewImageURLGuard() *imageURLGuard {
	return &imageURLGuard{}
}

// ValidateURL はURLの形式と安全性を検証する。
// DNS解決を伴わない静的な検証のみを行う。
// 注意: ホスト名がプライベートIPに解決されるケースは静的検証では防げないため、
// プローブを行う場合はNewSafeClientが生成するクライアントを必ず使用すること。
func (g *imageURLGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// スキーム検証: http/httpsのみ許可
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	// ホスト検証: 空ホストを拒否
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	// IPアドレスの場合: ブロック対象CIDRとの照合
	ip := net.ParseIP(host)
	if ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	// ホスト名の場合: localhost等の危険なホスト名を拒否
	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// NewSafeClient はプローブ用のHTTPクライアントを生成する。
// safeurlのデフォルト設定によりプライベートIP・ループバック・
// リンクローカル・メタデータIPへのアクセスがブロックされる。
func (g *imageURLGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isBlockedIP はIPアドレスがブロック対象ネットワークに含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// isBlockedHostname は危険なホスト名を検証する。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	return lower == "localhost" || strings.HasSuffix(lower, ".localhost") ||
		strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".internal")
}
