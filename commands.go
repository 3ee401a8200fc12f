// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trim21/errgo"

	"tome/internal/config"
	"tome/internal/meta"
	"tome/internal/metainfo"
	"tome/internal/pkg/as"
	"tome/internal/pkg/global"
	"tome/internal/pkg/null"
)

var label = color.New(color.Bold).SprintFunc()

func loadTorrent(cfg config.Config, filename string) (*metainfo.Torrent, error) {
	m, err := metainfo.LoadFromFile(filename, cfg.DecodeOptions()...)
	if err != nil {
		return nil, err
	}

	enc, err := m.DeclaredEncoding()
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("ignore declared encoding")
	} else if enc != nil {
		m.SetTextEncoding(enc)
	}

	return m, nil
}

func requireArgs(fs *pflag.FlagSet, n int) error {
	if fs.NArg() != n {
		fs.Usage()
		return fmt.Errorf("expecting %d arguments, got %d", n, fs.NArg())
	}

	return nil
}

func parseSize(key string) (null.Int64, error) {
	s := viper.GetString(key)
	if s == "" {
		return null.Int64{}, nil
	}

	n, err := units.RAMInBytes(s)
	if err != nil {
		return null.Int64{}, errgo.Wrap(err, fmt.Sprintf("invalid --%s", key))
	}

	return null.NewInt64(n), nil
}

func infoFlags(fs *pflag.FlagSet) {
	fs.Bool("json", false, "print as json")
}

type infoOutput struct {
	Announce     null.String           `json:"announce"`
	Comment      null.String           `json:"comment"`
	CreatedBy    null.String           `json:"created_by"`
	CreationDate null.Time             `json:"creation_date"`
	Publisher    null.String           `json:"publisher"`
	Name         string                `json:"name"`
	InfoHash     string                `json:"info_hash"`
	Magnet       string                `json:"magnet"`
	AnnounceList metainfo.AnnounceList `json:"announce_list"`
	TotalLength  int64                 `json:"total_length"`
	PieceLength  int64                 `json:"piece_length"`
	NumPieces    int                   `json:"pieces"`
	NumFiles     int                   `json:"files"`
	Private      bool                  `json:"private"`
}

func runInfo(cfg config.Config, fs *pflag.FlagSet) error {
	if err := requireArgs(fs, 1); err != nil {
		return err
	}

	m, err := loadTorrent(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	info, err := meta.FromTorrent(m)
	if err != nil {
		return err
	}

	var out = infoOutput{
		Name:        info.Name,
		InfoHash:    info.Hash.Hex(),
		TotalLength: info.TotalLength,
		PieceLength: info.PieceLength,
		NumPieces:   int(info.NumPieces),
		NumFiles:    len(info.Files),
		Private:     info.Private,
	}

	if out.Announce, err = m.Announce(); err != nil {
		return err
	}
	if out.AnnounceList, err = m.UpvertedAnnounceList(); err != nil {
		return err
	}
	if out.Comment, err = m.Comment(); err != nil {
		return err
	}
	if out.CreatedBy, err = m.CreatedBy(); err != nil {
		return err
	}
	if out.CreationDate, err = m.CreationDate(); err != nil {
		return err
	}
	if out.Publisher, err = m.Publisher(); err != nil {
		return err
	}
	if out.Magnet, err = m.Magnet(metainfo.MagnetOptions{DisplayName: true}); err != nil {
		return err
	}

	if viper.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(label("name:        "), out.Name)
	fmt.Println(label("info hash:   "), out.InfoHash)
	fmt.Println(label("size:        "), humanize.IBytes(as.Uint64(out.TotalLength)), fmt.Sprintf("(%d files)", out.NumFiles))
	fmt.Println(label("pieces:      "), out.NumPieces, "x", humanize.IBytes(as.Uint64(out.PieceLength)))
	fmt.Println(label("private:     "), out.Private)

	if out.Comment.Set {
		fmt.Println(label("comment:     "), out.Comment.Value)
	}
	if out.CreatedBy.Set {
		fmt.Println(label("created by:  "), out.CreatedBy.Value)
	}
	if out.CreationDate.Set {
		fmt.Println(label("created at:  "), out.CreationDate.Value.Format(time.RFC3339))
	}
	if out.Publisher.Set {
		fmt.Println(label("publisher:   "), out.Publisher.Value)
	}

	for i, tier := range out.AnnounceList {
		fmt.Println(label(fmt.Sprintf("tier %-7d", i)), strings.Join(tier, " "))
	}

	fmt.Println(label("magnet:      "), out.Magnet)

	return nil
}

func filesFlags(fs *pflag.FlagSet) {
	fs.String("pattern", "", "glob pattern matched against path segments and full path")
	fs.String("min-size", "", "only list files at least this large (e.g. 10MiB)")
	fs.String("max-size", "", "only list files at most this large")
}

func runFiles(cfg config.Config, fs *pflag.FlagSet) error {
	if err := requireArgs(fs, 1); err != nil {
		return err
	}

	minSize, err := parseSize("min-size")
	if err != nil {
		return err
	}

	maxSize, err := parseSize("max-size")
	if err != nil {
		return err
	}

	m, err := loadTorrent(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	files, err := m.SearchFiles(metainfo.SearchOptions{
		Pattern: viper.GetString("pattern"),
		MinSize: minSize.Value,
		MaxSize: maxSize,
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Printf("%10s  %s\n", humanize.IBytes(as.Uint64(f.Length)), f.DisplayPath())
	}

	return nil
}

func magnetFlags(fs *pflag.FlagSet) {
	fs.Bool("dn", false, "include display name")
	fs.Bool("xl", false, "include total length")
	fs.Bool("tr", false, "include announce url")
	fs.Bool("trs", false, "include all trackers of announce-list")
}

func runMagnet(cfg config.Config, fs *pflag.FlagSet) error {
	if err := requireArgs(fs, 1); err != nil {
		return err
	}

	m, err := loadTorrent(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	link, err := m.Magnet(metainfo.MagnetOptions{
		DisplayName:  viper.GetBool("dn"),
		Length:       viper.GetBool("xl"),
		Announce:     viper.GetBool("tr"),
		AnnounceList: viper.GetBool("trs"),
	})
	if err != nil {
		return err
	}

	fmt.Println(link)

	return nil
}

func createFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "output torrent file (default {name}.torrent)")
	fs.String("name", "", "torrent name (default base name of PATH)")
	fs.String("piece-length", "", "piece length (default from config, 256KiB)")
	fs.StringSlice("announce", nil, "tracker url, repeat for backup trackers")
	fs.String("comment", "", "torrent comment")
	fs.String("created-by", "", "created by (default from config, tome version)")
	fs.Bool("private", false, "set private flag")
	fs.Int("workers", 0, "hashing goroutines, 0 or 1 hashes sequentially")
	fs.String("read-rate-limit", "", "limit read speed (e.g. 50MiB)")
}

func runCreate(cfg config.Config, fs *pflag.FlagSet) error {
	if err := requireArgs(fs, 1); err != nil {
		return err
	}

	viper.SetDefault("piece-length", units.BytesSize(float64(cfg.Create.PieceLength)))
	viper.SetDefault("created-by", cfg.Create.CreatedBy)
	viper.SetDefault("private", cfg.Create.Private)
	viper.SetDefault("workers", cfg.Create.Workers)
	if cfg.Create.ReadRateLimit > 0 {
		viper.SetDefault("read-rate-limit", units.BytesSize(float64(cfg.Create.ReadRateLimit)))
	}

	pieceLength, err := parseSize("piece-length")
	if err != nil {
		return err
	}

	if pieceLength.Value <= 0 {
		return fmt.Errorf("invalid --piece-length %q", viper.GetString("piece-length"))
	}

	rate, err := parseSize("read-rate-limit")
	if err != nil {
		return err
	}

	src := filepath.Clean(fs.Arg(0))
	stat, err := os.Stat(src)
	if err != nil {
		return errgo.Wrap(err, "failed to stat content")
	}

	name := viper.GetString("name")
	if name == "" {
		name = filepath.Base(src)
	}

	output := viper.GetString("output")
	if output == "" {
		output = name + ".torrent"
	}

	m := metainfo.New()

	trackers := viper.GetStringSlice("announce")
	if len(trackers) != 0 {
		if err := m.SetAnnounce(trackers[0]); err != nil {
			return err
		}
	}

	if len(trackers) > 1 {
		al := make(metainfo.AnnounceList, 0, len(trackers))
		for _, tr := range trackers {
			al = append(al, []string{tr})
		}

		if err := m.SetAnnounceList(al); err != nil {
			return err
		}
	}

	if comment := viper.GetString("comment"); comment != "" {
		if err := m.SetComment(comment); err != nil {
			return err
		}
	}

	if viper.GetBool("private") {
		m.SetPrivate(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []metainfo.HashOption{
		metainfo.WithWorkers(viper.GetInt("workers")),
		metainfo.WithLogger(log.Logger),
	}

	if rate.Value > 0 {
		opts = append(opts, metainfo.WithReadRate(rate.Value))
	}

	var job *metainfo.HashJob
	if stat.IsDir() {
		job = m.SetFilesAsync(ctx, src, name, pieceLength.Value, opts...)
	} else {
		job = m.SetFileAsync(ctx, src, name, pieceLength.Value, opts...)
	}

	start := time.Now()
	for p := range job.Progress() {
		log.Info().
			Int("file", p.Index+1).
			Int("total", p.Total).
			Str("path", strings.Join(p.Path, "/")).
			Str("hashed", humanize.IBytes(as.Uint64(job.HashedBytes()))).
			Msg("hashed file")
	}

	if err := job.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("canceled")
		}

		return err
	}

	log.Info().
		Dur("took", time.Since(start)).
		Str("size", humanize.IBytes(as.Uint64(job.HashedBytes()))).
		Msg("hashing done")

	createdBy := viper.GetString("created-by")
	if createdBy == "" {
		createdBy = global.CreatedBy()
	}

	err = m.SaveFile(output, metainfo.SaveOptions{
		CreatedBy:    createdBy,
		CreationDate: time.Now(),
	})
	if err != nil {
		return err
	}

	h, err := m.InfoHash()
	if err != nil {
		return err
	}

	fmt.Println(label("saved:    "), output)
	fmt.Println(label("info hash:"), h.Hex())

	return nil
}

func verifyFlags(fs *pflag.FlagSet) {
	fs.Int("workers", 4, "hashing goroutines")
}

func runVerify(cfg config.Config, fs *pflag.FlagSet) error {
	if err := requireArgs(fs, 2); err != nil {
		return err
	}

	m, err := loadTorrent(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	info, err := meta.FromTorrent(m)
	if err != nil {
		return err
	}

	dir := fs.Arg(1)
	if multiple, err := m.Multiple(); err != nil {
		return err
	} else if multiple {
		dir = filepath.Join(dir, info.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	good, err := meta.Verify(ctx, info, dir, viper.GetInt("workers"))
	if err != nil {
		return err
	}

	count := good.GetCardinality()
	if count == uint64(info.NumPieces) {
		fmt.Println(color.GreenString("all %d pieces ok", count))
		return nil
	}

	return errors.New(color.RedString("%d/%d pieces ok (%.2f%%)", count, info.NumPieces,
		float64(count)*100/float64(max(info.NumPieces, 1))))
}
