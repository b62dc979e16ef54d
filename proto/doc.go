// Package proto 是 LedgerService 的 gRPC 介面，由 ledger.proto 產生。
// 金額一律以十進位字串傳輸，由伺服器解析。
package proto

//go:generate protoc --go_out=. --go_opt=paths=source_relative --go-grpc_out=. --go-grpc_opt=paths=source_relative ledger.proto

// MetadataSecretKey 異動類請求需在 metadata 帶上帳戶密碼
const MetadataSecretKey = "x-account-secret"
