package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration
		"Starting conversion of %s":           "%s の変換を開始します",
		"Source: %dx%d, %s":                   "ソース: %dx%d, %s",
		"Sampled %d frames into a %dx%d grid": "%d フレームを %dx%d のグリッドにサンプリングしました",
		"Converted %d frames":                 "%d フレームを変換しました",
		"Encoding %d frames at %.1f fps":      "%d フレームを %.1f fps でエンコード中",
		"Video encoded as %s (%s): %d bytes":  "動画を %s (%s) としてエンコードしました: %d バイト",
		"Output saved to %s":                  "出力を %s に保存しました",
		"Exported %d frames to %s":            "%d フレームを %s に書き出しました",
		"Conversion completed in %s":          "変換が %s で完了しました",
		"Interrupted, shutting down...":       "中断されました。シャットダウン中...",

		// Sample stage
		"Sampling %d frames at %.1f fps into a %dx%d grid": "%d フレームを %.1f fps で %dx%d のグリッドにサンプリング中",
		"Sampling completed":                               "サンプリングが完了しました",

		// Convert stage
		"Converting %d frames with %d workers": "%d フレームを %d ワーカーで変換中",
		"Conversion completed":                 "変換が完了しました",

		// Audio stage
		"Decoded %d channels at %d Hz, %s":                     "%d チャンネル %d Hz の音声をデコードしました (%s)",
		"Source has no audio track, output will be video-only": "ソースに音声トラックがないため、映像のみ出力します",

		// Encode stage
		"Encoding %d frames at %.1f fps (%dx%d, %d bps)":                               "%d フレームを %.1f fps でエンコード中 (%dx%d, %d bps)",
		"Container finalized: %d bytes":                                                "コンテナを確定しました: %d バイト",
		"Recording %d frames at %.1f fps as %s":                                        "%d フレームを %.1f fps で %s として録画中",
		"Recording finalized: %d bytes":                                                "録画を確定しました: %d バイト",
		"No audio encoder available, output will be video-only":                        "音声エンコーダーがないため、映像のみ出力します",
		"The fallback recorder cannot carry audio, output will be video-only":          "フォールバック録画は音声に対応していないため、映像のみ出力します",
		"Video encoder rejected the configuration, switching to the fallback recorder": "動画エンコーダーが設定を受け付けないため、フォールバック録画に切り替えます",

		// Progress
		"[%3d%%] %s %d/%d": "[%3d%%] %s %d/%d",
		"[%3d%%] %s":       "[%3d%%] %s",

		// Capabilities
		"Capabilities: video=%t audio=%t recorder=%s formats=%v": "機能: 動画=%t 音声=%t 録画=%s 形式=%v",
		"Encoders: %v, fallback recorder: %s":                    "エンコーダー: %v, フォールバック録画: %s",
		"Output container %s, video %s, audio %s":                "出力コンテナ %s, 映像 %s, 音声 %s",
		"Track %d %s %s: %d samples at %d Hz":                    "トラック %d %s %s: %d サンプル (%d Hz)",
		"Summary saved to %s":                                    "サマリーを %s に保存しました",

		// Warnings
		"Audio configuration %s %d Hz x%d not supported, output will be video-only": "音声設定 %s %d Hz x%d は非対応のため、映像のみ出力します",
		"Audio configuration probe failed, output will be video-only: %v":           "音声設定の確認に失敗したため、映像のみ出力します: %v",
		"Audio decoding failed, output will be video-only: %v":                      "音声のデコードに失敗したため、映像のみ出力します: %v",
		"Audio encoder configuration failed, output will be video-only: %v":         "音声エンコーダーの設定に失敗したため、映像のみ出力します: %v",
		"Audio encoding failed, output will be video-only: %v":                      "音声のエンコードに失敗したため、映像のみ出力します: %v",
		"Audio muxing failed, output will be video-only: %v":                        "音声の多重化に失敗したため、映像のみ出力します: %v",
		"Failed to save debug frame %d: %v":                                         "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to save run metadata: %v":                                           "実行メタデータの保存に失敗しました: %v",
		"Progress display failed: %v":                                               "進捗表示に失敗しました: %v",
		"Cannot inspect output: %v":                                                 "出力を解析できません: %v",
		"ffmpeg not found, video decoding will fail":                                "ffmpeg が見つからないため、動画のデコードに失敗します",
		"ffmpeg not found: %v":                                                      "ffmpeg が見つかりません: %v",
		"chrome probe failed: %v":                                                   "Chrome の確認に失敗しました: %v",

		// Errors
		"Failed to open source: %v":   "ソースを開けませんでした: %v",
		"Conversion failed: %v":       "変換に失敗しました: %v",
		"Failed to encode video: %v":  "動画のエンコードに失敗しました: %v",
		"Failed to write output: %v":  "出力の書き込みに失敗しました: %v",
		"Failed to export frames: %v": "フレームの書き出しに失敗しました: %v",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
	})
}
