package cli

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/filex"
	"github.com/myvaultapp/myvault/internal/vault"
)

func (a *App) listItems(query string) error {
	items := a.session.Search(query, "")
	if len(items) == 0 {
		fmt.Println("No items.")
		return nil
	}
	for _, item := range items {
		tags := ""
		if len(item.Tags) > 0 {
			tags = "  [" + strings.Join(item.Tags, ", ") + "]"
		}
		fmt.Printf("%s  %-12s  %s (%d bytes)%s\n",
			item.ID, item.CategoryKey(), item.DisplayTitle(), item.Size, tags)
	}
	return nil
}

func (a *App) uploadFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("usage: upload <path...>")
	}

	files := make([]vault.UploadFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		files = append(files, vault.UploadFile{
			Name:     name,
			MimeType: mime.TypeByExtension(filepath.Ext(name)),
			Data:     data,
		})
	}

	category, err := GetSimpleText(a.reader, "Category (empty for other)")
	if err != nil {
		return err
	}
	tagsLine, err := GetSimpleText(a.reader, "Tags (comma-separated, optional)")
	if err != nil {
		return err
	}
	password, err := GetPassword("Vault password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	var tags []string
	for _, tag := range strings.Split(tagsLine, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	res, err := a.session.Upload(ctx, files, password, vault.UploadOptions{
		Category: category,
		Tags:     tags,
	})
	fmt.Printf("Upload finished: %s\n", res)
	return err
}

func (a *App) findItem(id string) (*vault.Item, error) {
	item := a.session.Find(id)
	if item == nil {
		return nil, fmt.Errorf("no item with id %q", id)
	}
	return item, nil
}

func (a *App) getItem(ctx context.Context, id string) error {
	item, err := a.findItem(id)
	if err != nil {
		return err
	}

	password, err := GetPassword("Vault password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	data, err := a.session.Retrieve(ctx, item, password)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureSubdDir(a.config.DownloadDir)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, item.OriginalName)
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	fmt.Printf("Decrypted to %s (%d bytes)\n", target, len(data))
	return nil
}

func (a *App) previewItem(ctx context.Context, id string) error {
	item, err := a.findItem(id)
	if err != nil {
		return err
	}

	password, err := GetPassword("Vault password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.session.Preview(ctx, item, password)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d bytes, %s\n", item.DisplayTitle(), len(p.Data), p.MimeType)
	return nil
}

func (a *App) editItem(ctx context.Context, id string) error {
	item, err := a.findItem(id)
	if err != nil {
		return err
	}

	fmt.Printf("Editing %s (empty keeps the current value)\n", item.DisplayTitle())

	title, err := GetSimpleText(a.reader, "Title")
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.reader, "Category")
	if err != nil {
		return err
	}
	tagsLine, err := GetSimpleText(a.reader, "Tags (comma-separated, '-' clears)")
	if err != nil {
		return err
	}
	album, err := GetSimpleText(a.reader, "Album ('-' clears)")
	if err != nil {
		return err
	}
	date, err := GetSimpleText(a.reader, "Date, YYYY-MM-DD ('-' clears)")
	if err != nil {
		return err
	}

	changes := vault.ItemChanges{Title: title, Category: category}
	switch {
	case tagsLine == "-":
		changes.Tags = []string{}
	case tagsLine != "":
		for _, tag := range strings.Split(tagsLine, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				changes.Tags = append(changes.Tags, tag)
			}
		}
	}
	if album == "-" {
		changes.ClearAlbum = true
	} else {
		changes.Album = album
	}
	if date == "-" {
		changes.ClearDate = true
	} else {
		changes.Date = date
	}

	if err := a.session.Edit(ctx, id, changes); err != nil {
		return err
	}
	fmt.Println("Saved.")
	return nil
}

func (a *App) deleteItem(ctx context.Context, id string) error {
	item, err := a.findItem(id)
	if err != nil {
		return err
	}

	confirm, err := GetSimpleText(a.reader, fmt.Sprintf("Delete %q? (yes/no)", item.DisplayTitle()))
	if err != nil {
		return err
	}
	if confirm != "yes" {
		fmt.Println("Kept.")
		return nil
	}

	if err := a.session.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func (a *App) rotatePassword(ctx context.Context) error {
	oldPassword, err := GetPassword("Current vault password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)
	newPassword, err := GetPassword("New vault password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)
	again, err := GetPassword("New vault password, again")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)
	if !bytes.Equal(newPassword, again) {
		return fmt.Errorf("new passwords do not match")
	}

	fmt.Printf("Re-encrypting %d item(s)...\n", len(a.session.Items()))
	res, err := a.session.Rotate(ctx, oldPassword, newPassword)
	fmt.Printf("Rotation finished: %s\n", res)
	if res.Fail > 0 {
		fmt.Println("Failed items keep the old password; fix them and rotate again.")
	}
	return err
}

func (a *App) exportMetadata(path string) error {
	if path == "" {
		return fmt.Errorf("usage: export <path>")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := a.session.ExportMetadata(f); err != nil {
		return err
	}
	fmt.Printf("Metadata written to %s\n", path)
	return nil
}

func (a *App) importMetadata(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("usage: import <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	n, err := a.session.ImportMetadata(ctx, data)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %d record(s)\n", n)
	return nil
}

func (a *App) showActivity() error {
	acts := a.session.Activities()
	if len(acts) == 0 {
		fmt.Println("No activity yet.")
		return nil
	}
	for _, act := range acts {
		fmt.Printf("%s  %-8s %s\n", act.Timestamp, act.Type, act.Title)
	}
	return nil
}
