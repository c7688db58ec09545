package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jsphweid/mididf/analysis"
	"github.com/jsphweid/mididf/cache"
	"github.com/jsphweid/mididf/file"
	"github.com/jsphweid/mididf/midi"
	"github.com/jsphweid/mididf/store"
	"github.com/jsphweid/mididf/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch [DIR] [MAX]",
	Short: "Analyzes every midi file in a directory and stores the results",
	Long: `Analyzes every midi file below DIR (default: the configured media dir)
and stores the results in the database. MAX limits the number of files.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Storage.MediaDir
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no directory given and MEDIA_PATH is not set")
		}
		var maxNum int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			maxNum = n
		}
		return batch(cmd.Context(), cmd.OutOrStdout(), dir, maxNum, analysisOptions(cmd))
	},
}

func batch(ctx context.Context, w io.Writer, dir string, maxNum int, opts analysis.Options) error {
	paths, err := util.GatherAllMidiPaths(dir, maxNum)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	songs := cache.New(midi.ReadMidiFile, cfg.Storage.CacheSnapshot, time.Second)
	defer func() {
		if err := songs.Snapshot(); err != nil {
			logrus.WithError(err).Warn("could not write cache snapshot")
		}
	}()

	fileNumMap := file.CreateFileNumMap(paths)
	keys := util.SortedKeys(fileNumMap)
	var failed int
	for i, num := range keys {
		path := fileNumMap[num]
		log := logrus.WithField("file", path)
		log.Debugf("Processing %v of %v midi files", i+1, len(keys))

		song, err := songs.Get(path)
		if err != nil {
			log.WithError(err).Warn("Skipping")
			failed++
			continue
		}
		res, err := analysis.Analyze(song, opts)
		if err != nil {
			log.WithError(err).Warn("Skipping")
			failed++
			continue
		}
		saved, err := s.Save(ctx, file.MetadataKey(dir, path), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s max chord %d\n", saved.ID, filepath.Base(path), saved.MaxNotes)
	}
	logrus.WithFields(logrus.Fields{"files": len(keys), "failed": failed}).Info("batch done")
	return nil
}
