// Package main provides localization for the asciivideo CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":    "出力先",
		"Rendering": "描画",
		"Encoding":  "エンコード",
		"Platform":  "実行環境",
		"Debug":     "デバッグ",
		"Logging":   "ログ",

		// Root command
		"Convert a video into a character-art video":                                                                                                       "動画を文字アート動画に変換",
		"asciivideo samples a video, renders every frame as colored characters and encodes the result as MP4, or WebM when no H.264 encoder is available.": "asciivideoは動画からフレームを抽出し、各フレームを色付きの文字で描画して、MP4（H.264エンコーダがない場合はWebM）として保存します。",

		// Flags
		"YAML configuration file":                                     "YAML設定ファイル",
		"Output file path (extension follows the container)":          "出力ファイルパス（拡張子はコンテナに合わせて変更）",
		"Export every rendered frame as PNG into this directory":      "描画した全フレームをPNGとしてこのディレクトリに出力",
		"Output execution summary to file (Markdown format)":          "実行サマリーをファイルに出力（Markdown形式）",
		"Frames per second (1-30)":                                    "フレームレート（1-30）",
		"Width in characters (40-240)":                                "横方向の文字数（40-240）",
		"Glyphs from darkest to background (overrides --ramp-preset)": "暗い順の文字列、最後は背景（--ramp-presetを上書き）",
		"Glyph ramp preset (classic, dense, blocks)":                  "文字ランプのプリセット（classic, dense, blocks）",
		"Dither noise in percent (0-100)":                             "ディザノイズ（パーセント、0-100）",
		"Brightness at which pixels become background (0-255)":        "背景とみなす明るさ（0-255）",
		"Dither seed for reproducible output (0 = random)":            "再現可能な出力のためのディザシード（0 = ランダム）",
		"Glyph size in pixels":                                        "文字サイズ（ピクセル）",
		"TrueType font file (default: built-in monospace)":            "TrueTypeフォントファイル（デフォルト: 内蔵等幅フォント）",
		"Rasterization workers (default: number of CPUs)":             "描画ワーカー数（デフォルト: CPU数）",
		"Do not include the audio track":                              "音声トラックを含めない",
		"Quality preset (low, medium, high)":                          "品質プリセット（low, medium, high）",
		"Video bitrate in bits per second (overrides quality preset)": "動画ビットレート（bps、品質プリセットを上書き）",
		"Path to ffmpeg executable":                                   "ffmpeg実行ファイルのパス",
		"Path to Chrome executable":                                   "Chrome実行ファイルのパス",
		"Fallback recorder (auto, ffmpeg, chrome, none)":              "フォールバック録画方式（auto, ffmpeg, chrome, none）",
		"Skip the H.264 encoder and record WebM":                      "H.264エンコーダを使わずWebMで録画",
		"Enable debug output":                                         "デバッグ出力を有効化",
		"Directory for debug output":                                  "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":                        "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                     "全てのログ出力を抑制",
		"Log progress lines instead of the interactive progress bar":  "対話的なプログレスバーの代わりに進捗をログ出力",

		// Runtime messages
		"Error: %s":                           "エラー: %s",
		"Exactly one input video is required": "入力動画を1つ指定してください",
		"Converting %s":                       "%s を変換中",

		// Summary content
		"Conversion Summary": "変換サマリー",
		"Generated":          "生成日時",
		"Run ID":             "実行ID",
		"Item":               "項目",
		"Value":              "値",
		"Yes":                "あり",
		"No":                 "なし",
		"None":               "なし",
		"Generated by":       "生成:",

		// Source section
		"Source":      "入力動画",
		"File":        "ファイル",
		"Dimensions":  "解像度",
		"Duration":    "長さ",
		"Audio Track": "音声トラック",

		// Settings section
		"Settings":        "設定",
		"Frame Rate":      "フレームレート",
		"Width":           "横幅",
		"characters":      "文字",
		"Glyph Ramp":      "文字ランプ",
		"Noise":           "ノイズ",
		"White Threshold": "白しきい値",
		"Quality":         "品質",
		"Include Audio":   "音声を含める",

		// Output section
		"Container":       "コンテナ",
		"Codec":           "コーデック",
		"Video Size":      "動画サイズ",
		"Character Grid":  "文字グリッド",
		"Frame Count":     "フレーム数",
		"Video Duration":  "動画再生時間",
		"Video File Size": "動画ファイルサイズ",
		"Audio":           "音声",
		"fallback":        "フォールバック",

		// Timings section
		"Timings":          "処理時間",
		"Sampling":         "フレーム抽出",
		"Conversion":       "文字変換",
		"Audio Extraction": "音声抽出",
		"Total":            "合計",
	})
}
