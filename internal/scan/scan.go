// Package scan inventories extracted game dumps. It walks every course the
// course list names, opens the compressed course archive behind it, and
// records the pieces each course is expected to carry.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/phst-randomizer/zed/common"
	"github.com/phst-randomizer/zed/course"
	"github.com/phst-randomizer/zed/internal/logging"
	"github.com/phst-randomizer/zed/narc"
)

// Target names one extracted dump to scan.
type Target struct {
	Game common.Game
	Root string
}

type Config struct {
	Targets []Target
	Workers int
}

// DefaultConfig scans both games from the conventional dump location next
// to the working tree.
func DefaultConfig() Config {
	return Config{
		Targets: []Target{
			{Game: common.PhantomHourglass, Root: filepath.FromSlash("../RETAIL/ph/root")},
			{Game: common.SpiritTracks, Root: filepath.FromSlash("../RETAIL/st/root")},
		},
		Workers: runtime.NumCPU(),
	}
}

// Object list files every course archive carries.
var objectLists = []string{"motype.zob", "motype_1.zob", "npctype.zob", "npctype_1.zob"}

type Scanner struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Scanner{cfg: cfg, log: logging.Component("scan")}
}

// Run scans every configured target. Per-course and per-target problems are
// recorded in the report rather than aborting the run; the returned error
// only reflects cancellation.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}
	for _, tgt := range s.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.Games = append(rep.Games, s.scanGame(ctx, tgt))
	}
	return rep, nil
}

func (s *Scanner) scanGame(ctx context.Context, tgt Target) GameReport {
	gr := GameReport{Game: tgt.Game.String(), Root: tgt.Root}
	s.log.Info().Str("game", gr.Game).Str("root", tgt.Root).Msg("scanning")

	list, err := readCourseList(tgt.Root)
	if err != nil {
		s.log.Error().Err(err).Str("game", gr.Game).Msg("course list unavailable")
		gr.Error = err.Error()
		return gr
	}

	gr.Courses = make([]CourseReport, len(list.Entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, entry := range list.Entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gr.Courses[i] = s.scanCourse(tgt, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		gr.Error = err.Error()
	}
	return gr
}

func (s *Scanner) scanCourse(tgt Target, entry course.Entry) CourseReport {
	cr := CourseReport{Name: entry.DisplayName, File: entry.File}

	// Not every list entry has a matching folder on disk.
	dir := filepath.Join(tgt.Root, "Map", entry.File)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		cr.Skipped = true
		return cr
	}

	data, err := os.ReadFile(filepath.Join(dir, "course.bin"))
	if err != nil {
		return s.fail(cr, errors.Wrap(err, "read course archive"))
	}
	archive, err := narc.Open(data)
	if err != nil {
		return s.fail(cr, errors.Wrapf(err, "course %s", entry.File))
	}
	cr.Files = archive.NumFiles()

	// The map layout is always the only file under arrange/.
	arrange := archive.Root.Lookup("arrange")
	if arrange == nil || len(arrange.Files) == 0 {
		return s.fail(cr, errors.Errorf("course %s: no arrange file", entry.File))
	}
	zab, err := archive.File("arrange/" + arrange.Files[0])
	if err != nil {
		return s.fail(cr, errors.Wrapf(err, "course %s", entry.File))
	}
	cr.Arrange = arrange.Files[0]
	cr.ArrangeSize = len(zab)

	cr.ObjectLists = make(map[string]int, len(objectLists))
	for _, name := range objectLists {
		zob, err := archive.File("objlist/" + name)
		if err != nil {
			return s.fail(cr, errors.Wrapf(err, "course %s", entry.File))
		}
		cr.ObjectLists[name] = len(zob)
	}

	// Only Phantom Hourglass courses carry a texture archive, and not all
	// of them do.
	model, err := archive.File("tex/mapModel.nsbtx")
	if err == nil {
		cr.MapModel = len(model)
	} else if !errors.Is(err, narc.ErrNotFound) {
		return s.fail(cr, errors.Wrapf(err, "course %s", entry.File))
	}

	s.log.Debug().
		Str("game", tgt.Game.String()).
		Str("course", entry.File).
		Int("files", cr.Files).
		Msg("course ok")
	return cr
}

func (s *Scanner) fail(cr CourseReport, err error) CourseReport {
	s.log.Error().Err(err).Str("course", cr.File).Msg("course scan failed")
	cr.Error = err.Error()
	return cr
}

func readCourseList(root string) (*course.List, error) {
	var init []byte
	if data, err := os.ReadFile(filepath.Join(root, "Course", "courseinit.cib")); err == nil {
		init = data
	}
	list, err := os.ReadFile(filepath.Join(root, "Map", "courselist.clb"))
	if err != nil {
		list, err = os.ReadFile(filepath.Join(root, "Course", "courselist.clb"))
	}
	if err != nil {
		return nil, errors.Wrap(err, "course list")
	}
	parsed, err := course.ParseList(init, list)
	return parsed, errors.Wrap(err, "course list")
}
