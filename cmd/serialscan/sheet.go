package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hhoikoo/serial-scanner/internal/config"
	"github.com/hhoikoo/serial-scanner/internal/scan"
	"github.com/hhoikoo/serial-scanner/internal/sheet"
	"github.com/hhoikoo/serial-scanner/internal/store"
)

func runSheet(args []string) error {
	fs := flag.NewFlagSet("sheet", flag.ExitOnError)
	cfgPath := configFlag(fs)
	name := fs.String("name", "", "batch name recorded with the sheet")
	serialsArg := fs.String("serials", "", "serials to print, comma or newline separated")
	serialsFile := fs.String("serials-file", "", "file with one serial per line")
	count := fs.Int("count", 0, "generate this many sequential serials instead")
	prefix := fs.String("prefix", "SN-", "prefix for generated serials")
	start := fs.Int("start", 1, "first number for generated serials")
	out := fs.String("out", "labels.pdf", "output PDF path")
	dataDir := fs.String("data", "", "data directory (overrides config)")
	noStore := fs.Bool("no-store", false, "skip recording the batch in the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	serials, err := collectSerials(*serialsArg, *serialsFile, *count, *prefix, *start)
	if err != nil {
		return err
	}
	if len(serials) == 0 {
		return fmt.Errorf("no serials given; use -serials, -serials-file or -count")
	}

	layout := layoutFromConfig(cfg.Sheet)
	if err := sheet.GenerateFile(*out, serials, layout); err != nil {
		return err
	}

	fmt.Printf("Wrote %d labels on %d page(s) to %s\n", len(serials), layout.PageCount(len(serials)), *out)

	if *noStore {
		return nil
	}

	st, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	batchName := *name
	if batchName == "" {
		batchName = *out
	}
	batch := &store.Batch{Name: batchName, PageSize: layout.PageSize}
	if err := st.Batches().Create(batch, serials); err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}

	fmt.Printf("Recorded batch %s (%q)\n", batch.ID, batch.Name)
	return nil
}

func runBatches(args []string) error {
	fs := flag.NewFlagSet("batches", flag.ExitOnError)
	cfgPath := configFlag(fs)
	dataDir := fs.String("data", "", "data directory (overrides config)")
	del := fs.Bool("delete", false, "delete the given batch instead of showing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	st, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := st.Batches()

	if fs.NArg() == 0 {
		if *del {
			return fmt.Errorf("-delete needs a batch ID")
		}
		return listBatches(repo)
	}

	id := fs.Arg(0)
	if *del {
		if err := repo.Delete(id); err != nil {
			return fmt.Errorf("failed to delete batch %s: %w", id, err)
		}
		fmt.Printf("Deleted batch %s\n", id)
		return nil
	}

	return showBatch(repo, id)
}

func listBatches(repo *store.BatchRepository) error {
	batches, err := repo.List()
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("No batches recorded")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %7s  %s\n", "ID", "CREATED", "SERIALS", "NAME")
	for _, b := range batches {
		fmt.Printf("%-36s  %-19s  %7d  %s\n",
			b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.SerialCount, b.Name)
	}
	return nil
}

func showBatch(repo *store.BatchRepository, id string) error {
	batch, err := repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	serials, err := repo.Serials(id)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s (%q), %s, %d serial(s), created %s\n",
		batch.ID, batch.Name, batch.PageSize, batch.SerialCount,
		batch.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, serial := range serials {
		fmt.Println(serial)
	}
	return nil
}

// collectSerials merges explicit serials with a generated sequence.
func collectSerials(inline, file string, count int, prefix string, start int) ([]string, error) {
	var serials []string

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read serials file: %w", err)
		}
		serials = append(serials, scan.ParseTargets(string(data))...)
	}
	if inline != "" {
		serials = append(serials, scan.ParseTargets(inline)...)
	}
	for i := 0; i < count; i++ {
		serials = append(serials, fmt.Sprintf("%s%04d", prefix, start+i))
	}

	return serials, nil
}

func layoutFromConfig(c config.SheetConfig) sheet.Layout {
	layout := sheet.DefaultLayout()
	if c.PageSize != "" {
		layout.PageSize = c.PageSize
	}
	if c.Columns > 0 {
		layout.Columns = c.Columns
	}
	if c.Rows > 0 {
		layout.Rows = c.Rows
	}
	if c.MarginMM > 0 {
		layout.MarginMM = c.MarginMM
	}
	if c.GapMM > 0 {
		layout.GapMM = c.GapMM
	}
	if c.LabelHeightMM > 0 {
		layout.LabelHeightMM = c.LabelHeightMM
	}
	return layout
}
